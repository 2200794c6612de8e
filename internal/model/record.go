package model

import "time"

// Record is one serialized document of the key-value store.
type Record struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
