package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finalthread/server/models"
	"github.com/finalthread/server/storage"
	"github.com/finalthread/server/utils"
)

// CapsuleController manages time capsules. Lock state is always evaluated
// against the clock on read, never trusted from the stored IsLocked flag.
type CapsuleController struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

// NewCapsuleController creates a CapsuleController.
func NewCapsuleController(db *gorm.DB, blobs storage.BlobStore) *CapsuleController {
	return &CapsuleController{db: db, blobs: blobs}
}

// Create stores a message capsule. The lock date must be in the future.
func (c *CapsuleController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req struct {
		Title       string    `json:"title" binding:"required,max=255"`
		Description string    `json:"description"`
		Content     string    `json:"content" binding:"required"`
		LockUntil   time.Time `json:"lock_until" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	if !req.LockUntil.After(time.Now()) {
		utils.Error(ctx, http.StatusBadRequest, 40021, "lock date must be in the future")
		return
	}

	capsule := models.TimeCapsule{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        models.CapsuleTypeMessage,
		Content:     utils.Sanitize(req.Content),
		LockUntil:   req.LockUntil,
		IsLocked:    true,
	}

	if err := c.db.Create(&capsule).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create capsule")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, c.capsuleView(ctx, capsule, false))
}

// CreateFile stores a file capsule: the blob goes to object storage first,
// then the metadata row. If the insert fails the uploaded blob is removed so
// no orphan remains.
func (c *CapsuleController) CreateFile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	title := strings.TrimSpace(ctx.PostForm("title"))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "title is required")
		return
	}
	lockRaw := strings.TrimSpace(ctx.PostForm("lock_until"))
	lockUntil, err := time.Parse(time.RFC3339, lockRaw)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "lock_until must be RFC3339")
		return
	}
	if !lockUntil.After(time.Now()) {
		utils.Error(ctx, http.StatusBadRequest, 40021, "lock date must be in the future")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "file is required")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to read upload")
		return
	}
	defer src.Close()

	key := storage.ObjectKey(userID)
	contentType := fileHeader.Header.Get("Content-Type")
	if err := c.blobs.Upload(ctx.Request.Context(), key, src, contentType); err != nil {
		utils.Sugar.Errorf("capsule blob upload failed user=%d err=%v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to store file")
		return
	}

	capsule := models.TimeCapsule{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(ctx.PostForm("description")),
		Type:        models.CapsuleTypeFile,
		StoragePath: key,
		Size:        strconv.FormatInt(fileHeader.Size, 10),
		LockUntil:   lockUntil,
		IsLocked:    true,
	}

	if err := c.db.Create(&capsule).Error; err != nil {
		// Compensate: the metadata insert failed, so the blob must not survive.
		if rmErr := c.blobs.Remove(ctx.Request.Context(), key); rmErr != nil {
			utils.Sugar.Errorf("compensating blob removal failed key=%s err=%v", key, rmErr)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create capsule")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, c.capsuleView(ctx, capsule, false))
}

// List returns the caller's capsules with lock status computed per item.
func (c *CapsuleController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	page, pageSize := parsePagination(ctx)

	query := c.db.Model(&models.TimeCapsule{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to count capsules")
		return
	}

	var capsules []models.TimeCapsule
	if err := query.Order("lock_until ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&capsules).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to retrieve capsules")
		return
	}

	items := make([]gin.H, 0, len(capsules))
	for _, capsule := range capsules {
		items = append(items, c.capsuleView(ctx, capsule, false))
	}

	utils.Success(ctx, gin.H{
		"items":      items,
		"pagination": paginationMeta(page, pageSize, total),
	})
}

// Get returns one capsule. Content and file URLs are included only once the
// lock date has passed, regardless of what IsLocked says in the row.
func (c *CapsuleController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var capsule models.TimeCapsule
	if err := c.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&capsule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "capsule not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to retrieve capsule")
		return
	}

	utils.Success(ctx, c.capsuleView(ctx, capsule, true))
}

// Delete removes a capsule. For file capsules the metadata delete and a blob
// tombstone commit atomically, then the blob removal is attempted; on failure
// the tombstone stays for the reconcile worker.
func (c *CapsuleController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var capsule models.TimeCapsule
	if err := c.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&capsule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "capsule not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to retrieve capsule")
		return
	}

	if capsule.StoragePath == "" {
		if err := c.db.Delete(&capsule).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete capsule")
			return
		}
		invalidateDashboard(userID)
		utils.Success(ctx, gin.H{"deleted": true})
		return
	}

	tombstoneID, err := deleteWithTombstone(c.db, &capsule, capsule.StoragePath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete capsule")
		return
	}

	removeBlobBestEffort(ctx, c.db, c.blobs, tombstoneID, capsule.StoragePath)
	invalidateDashboard(userID)
	utils.Success(ctx, gin.H{"deleted": true})
}

// capsuleView shapes a capsule for responses. withContent additionally
// releases the payload when the lock has expired.
func (c *CapsuleController) capsuleView(ctx *gin.Context, capsule models.TimeCapsule, withContent bool) gin.H {
	status := utils.EvaluateTimeLock(capsule.LockUntil, time.Now())

	view := gin.H{
		"id":             capsule.ID,
		"title":          capsule.Title,
		"description":    capsule.Description,
		"type":           capsule.Type,
		"size":           capsule.Size,
		"lock_until":     capsule.LockUntil,
		"unlocked":       status.Unlocked,
		"days_remaining": status.DaysRemaining,
		"unlocked_at":    capsule.UnlockedAt,
		"created_at":     capsule.CreatedAt,
	}

	if withContent && status.Unlocked {
		if capsule.Type == models.CapsuleTypeFile && capsule.StoragePath != "" {
			url, err := c.blobs.SignedGetURL(ctx.Request.Context(), capsule.StoragePath)
			if err != nil {
				utils.Sugar.Errorf("capsule presign failed id=%d err=%v", capsule.ID, err)
			} else {
				view["file_url"] = url
			}
		} else {
			view["content"] = capsule.Content
		}
	}

	return view
}
