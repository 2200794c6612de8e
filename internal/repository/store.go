package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"synclife/internal/model"
)

// Storage keys of the persisted documents.
const (
	KeyProfile  = "sync_life_profile_v1"
	KeySchedule = "sync_life_schedule_v1"
	KeySession  = "sync_life_session_v1"
)

// Store persists the profile and the weekly schedule as JSON snapshots.
// Load methods return nil without error when nothing is stored.
type Store struct {
	records *RecordRepository
	log     *zap.Logger
}

func NewStore(records *RecordRepository, log *zap.Logger) *Store {
	return &Store{records: records, log: log}
}

func (s *Store) LoadProfile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	ok, err := s.load(ctx, KeyProfile, &p)
	if err != nil || !ok {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p *model.Profile) error {
	if err := s.save(ctx, KeyProfile, p); err != nil {
		return err
	}
	s.log.Debug("profile updated in persistent storage")
	return nil
}

func (s *Store) LoadSchedule(ctx context.Context) (*model.WeeklySchedule, error) {
	var w model.WeeklySchedule
	ok, err := s.load(ctx, KeySchedule, &w)
	if err != nil || !ok {
		return nil, err
	}
	return &w, nil
}

func (s *Store) SaveSchedule(ctx context.Context, w *model.WeeklySchedule) error {
	if err := s.save(ctx, KeySchedule, w); err != nil {
		return err
	}
	s.log.Debug("weekly schedule updated in persistent storage")
	return nil
}

// Clear removes every key of the session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.records.Delete(ctx, KeyProfile, KeySchedule, KeySession); err != nil {
		return err
	}
	s.log.Info("session cleared")
	return nil
}

func (s *Store) load(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := s.records.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.records.Put(ctx, key, string(raw))
}
