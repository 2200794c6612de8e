package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"synclife/internal/model"
)

// RecordRepository is a key-value table of serialized documents.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Get returns the stored value and whether the key exists.
func (r *RecordRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var rec model.Record
	err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&rec).Error
	switch {
	case err == nil:
		return rec.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("find record %q: %w", key, err)
	}
}

// Put inserts or overwrites the value under key.
func (r *RecordRepository) Put(ctx context.Context, key, value string) error {
	rec := model.Record{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("put record %q: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (r *RecordRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("`key` IN ?", keys).Delete(&model.Record{}).Error; err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	return nil
}
