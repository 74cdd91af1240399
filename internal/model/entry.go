package model

import "time"

// StorageEntry is one durable key in the sqlite backend.
type StorageEntry struct {
	Key       string `gorm:"column:storage_key;primaryKey"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
