package models

import "time"

// BlobTombstone records a blob whose metadata row is gone but whose object may
// still exist in storage. Rows are written in the same transaction that deletes
// the metadata, then cleared once the blob removal succeeds; the reconcile
// worker retries whatever remains.
type BlobTombstone struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StoragePath string    `gorm:"size:1024;not null" json:"storage_path"`
	Attempts    int       `gorm:"default:0" json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
}
