package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finalthread/server/models"
	"github.com/finalthread/server/storage"
	"github.com/finalthread/server/utils"
)

// deleteWithTombstone deletes a metadata row and writes a blob tombstone in
// the same transaction. Either both land or neither does, so a blob can never
// be orphaned without a tombstone pointing at it.
func deleteWithTombstone(db *gorm.DB, row interface{}, storagePath string) (uint, error) {
	tombstone := models.BlobTombstone{StoragePath: storagePath}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(row).Error; err != nil {
			return err
		}
		return tx.Create(&tombstone).Error
	})
	if err != nil {
		return 0, err
	}
	return tombstone.ID, nil
}

// removeBlobBestEffort tries the blob removal right away and clears the
// tombstone on success. On failure the tombstone stays; the reconcile worker
// retries it later.
func removeBlobBestEffort(ctx *gin.Context, db *gorm.DB, blobs storage.BlobStore, tombstoneID uint, storagePath string) {
	if err := blobs.Remove(ctx.Request.Context(), storagePath); err != nil {
		utils.Sugar.Warnf("blob removal deferred to reconcile key=%s err=%v", storagePath, err)
		return
	}
	if err := db.Delete(&models.BlobTombstone{}, tombstoneID).Error; err != nil {
		utils.Sugar.Warnf("tombstone cleanup failed id=%d err=%v", tombstoneID, err)
	}
}
