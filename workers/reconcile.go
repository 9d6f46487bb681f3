package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/finalthread/server/models"
	"github.com/finalthread/server/storage"
)

// StartReconcileWorker launches the blob tombstone sweeper. Tombstones mark
// blobs whose metadata is already gone; each pass retries the removal and
// clears the row on success.
func StartReconcileWorker(db *gorm.DB, blobs storage.BlobStore, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		for {
			time.Sleep(interval)
			if db == nil || blobs == nil {
				continue
			}
			ReconcileTombstones(context.Background(), db, blobs)
		}
	}()
}

// ReconcileTombstones retries pending blob removals, oldest first. Failures
// bump the attempt counter and stay queued for the next pass.
func ReconcileTombstones(ctx context.Context, db *gorm.DB, blobs storage.BlobStore) {
	var tombstones []models.BlobTombstone
	if err := db.Order("created_at ASC").Limit(100).Find(&tombstones).Error; err != nil {
		logWarnf("tombstone query failed: %v", err)
		return
	}

	for _, ts := range tombstones {
		if err := blobs.Remove(ctx, ts.StoragePath); err != nil {
			logWarnf("tombstone removal failed id=%d key=%s attempts=%d err=%v", ts.ID, ts.StoragePath, ts.Attempts+1, err)
			if err := db.Model(&models.BlobTombstone{}).Where("id = ?", ts.ID).
				Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
				logWarnf("tombstone attempt bump failed id=%d err=%v", ts.ID, err)
			}
			continue
		}

		if err := db.Delete(&models.BlobTombstone{}, ts.ID).Error; err != nil {
			logWarnf("tombstone cleanup failed id=%d err=%v", ts.ID, err)
		}
	}
}
