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

// AssetController manages digital assets backed by the blob store.
type AssetController struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

// NewAssetController creates an AssetController.
func NewAssetController(db *gorm.DB, blobs storage.BlobStore) *AssetController {
	return &AssetController{db: db, blobs: blobs}
}

// Upload stores a file in the blob store and records its metadata. A failed
// metadata insert removes the just-uploaded blob so no orphan remains.
func (a *AssetController) Upload(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "file is required")
		return
	}

	name := strings.TrimSpace(ctx.PostForm("name"))
	if name == "" {
		name = fileHeader.Filename
	}

	var releaseDate *time.Time
	if raw := strings.TrimSpace(ctx.PostForm("scheduled_release_date")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40071, "scheduled_release_date must be RFC3339")
			return
		}
		releaseDate = &t
	}

	visibility := strings.ToLower(strings.TrimSpace(ctx.PostForm("visibility")))
	switch visibility {
	case "":
		visibility = models.VisibilityPrivate
	case models.VisibilityPrivate, models.VisibilityContacts:
	default:
		utils.Error(ctx, http.StatusBadRequest, 40072, "unknown visibility")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to read upload")
		return
	}
	defer src.Close()

	key := storage.ObjectKey(userID)
	contentType := fileHeader.Header.Get("Content-Type")
	if err := a.blobs.Upload(ctx.Request.Context(), key, src, contentType); err != nil {
		utils.Sugar.Errorf("asset blob upload failed user=%d err=%v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to store file")
		return
	}

	asset := models.DigitalAsset{
		UserID:               userID,
		Name:                 name,
		Type:                 contentType,
		Size:                 strconv.FormatInt(fileHeader.Size, 10),
		StoragePath:          key,
		Visibility:           visibility,
		Tags:                 strings.TrimSpace(ctx.PostForm("tags")),
		Folder:               strings.TrimSpace(ctx.PostForm("folder")),
		ScheduledReleaseDate: releaseDate,
		Watermark:            ctx.PostForm("watermark") == "true",
		RestrictDownload:     ctx.PostForm("restrict_download") == "true",
	}

	if err := a.db.Create(&asset).Error; err != nil {
		// Compensate: remove the blob so storage matches the metadata.
		if rmErr := a.blobs.Remove(ctx.Request.Context(), key); rmErr != nil {
			utils.Sugar.Errorf("compensating blob removal failed key=%s err=%v", key, rmErr)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to record asset")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, assetView(asset))
}

// List returns the caller's assets with optional folder and tag filters.
func (a *AssetController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	page, pageSize := parsePagination(ctx)

	query := a.db.Model(&models.DigitalAsset{}).Where("user_id = ?", userID)
	if folder := strings.TrimSpace(ctx.Query("folder")); folder != "" {
		query = query.Where("folder = ?", folder)
	}
	if tag := strings.TrimSpace(ctx.Query("tag")); tag != "" {
		query = query.Where("tags LIKE ?", "%"+tag+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50073, "failed to count assets")
		return
	}

	var assets []models.DigitalAsset
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&assets).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50074, "failed to retrieve assets")
		return
	}

	items := make([]gin.H, 0, len(assets))
	for _, asset := range assets {
		items = append(items, assetView(asset))
	}

	utils.Success(ctx, gin.H{
		"items":      items,
		"pagination": paginationMeta(page, pageSize, total),
	})
}

// Update edits asset metadata. The blob, its size and its storage path are
// immutable after upload.
func (a *AssetController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var asset models.DigitalAsset
	if err := a.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40470, "asset not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50075, "failed to retrieve asset")
		return
	}

	var req struct {
		Name                 *string    `json:"name"`
		Visibility           *string    `json:"visibility"`
		Tags                 *string    `json:"tags"`
		Folder               *string    `json:"folder"`
		ScheduledReleaseDate *time.Time `json:"scheduled_release_date"`
		Watermark            *bool      `json:"watermark"`
		RestrictDownload     *bool      `json:"restrict_download"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40073, "invalid request payload")
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		asset.Name = strings.TrimSpace(*req.Name)
	}
	if req.Visibility != nil {
		switch strings.ToLower(strings.TrimSpace(*req.Visibility)) {
		case models.VisibilityPrivate:
			asset.Visibility = models.VisibilityPrivate
		case models.VisibilityContacts:
			asset.Visibility = models.VisibilityContacts
		default:
			utils.Error(ctx, http.StatusBadRequest, 40072, "unknown visibility")
			return
		}
	}
	if req.Tags != nil {
		asset.Tags = strings.TrimSpace(*req.Tags)
	}
	if req.Folder != nil {
		asset.Folder = strings.TrimSpace(*req.Folder)
	}
	if req.ScheduledReleaseDate != nil {
		asset.ScheduledReleaseDate = req.ScheduledReleaseDate
	}
	if req.Watermark != nil {
		asset.Watermark = *req.Watermark
	}
	if req.RestrictDownload != nil {
		asset.RestrictDownload = *req.RestrictDownload
	}

	if err := a.db.Save(&asset).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50076, "failed to update asset")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, assetView(asset))
}

// DownloadURL returns a short-lived signed URL for the asset blob and stamps
// last_accessed. Downloads honor restrict_download and the scheduled release
// date on the server, not the client.
func (a *AssetController) DownloadURL(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var asset models.DigitalAsset
	if err := a.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40470, "asset not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50075, "failed to retrieve asset")
		return
	}

	if asset.RestrictDownload {
		utils.Error(ctx, http.StatusForbidden, 40370, "downloads are restricted for this asset")
		return
	}
	if asset.ScheduledReleaseDate != nil && asset.ScheduledReleaseDate.After(time.Now()) {
		utils.Error(ctx, http.StatusForbidden, 40371, "asset is not released yet")
		return
	}

	url, err := a.blobs.SignedGetURL(ctx.Request.Context(), asset.StoragePath)
	if err != nil {
		utils.Sugar.Errorf("asset presign failed id=%d err=%v", asset.ID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50077, "failed to sign download url")
		return
	}

	now := time.Now()
	if err := a.db.Model(&asset).Update("last_accessed", now).Error; err != nil {
		utils.Sugar.Warnf("last_accessed update failed id=%d err=%v", asset.ID, err)
	}

	utils.Success(ctx, gin.H{"url": url})
}

// Delete removes the metadata row and tombstones the blob in one transaction,
// then attempts the blob removal. The reconcile worker retries failures.
func (a *AssetController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var asset models.DigitalAsset
	if err := a.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40470, "asset not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50075, "failed to retrieve asset")
		return
	}

	tombstoneID, err := deleteWithTombstone(a.db, &asset, asset.StoragePath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50078, "failed to delete asset")
		return
	}

	removeBlobBestEffort(ctx, a.db, a.blobs, tombstoneID, asset.StoragePath)
	invalidateDashboard(userID)
	utils.Success(ctx, gin.H{"deleted": true})
}

// assetView shapes an asset for responses. The raw size is kept as stored and
// a human readable rendering rides along.
func assetView(asset models.DigitalAsset) gin.H {
	sizeHuman := ""
	if n, err := strconv.ParseInt(asset.Size, 10, 64); err == nil {
		sizeHuman = utils.FormatFileSize(n)
	}
	return gin.H{
		"id":                     asset.ID,
		"name":                   asset.Name,
		"type":                   asset.Type,
		"size":                   asset.Size,
		"size_human":             sizeHuman,
		"visibility":             asset.Visibility,
		"tags":                   asset.Tags,
		"folder":                 asset.Folder,
		"scheduled_release_date": asset.ScheduledReleaseDate,
		"watermark":              asset.Watermark,
		"restrict_download":      asset.RestrictDownload,
		"created_at":             asset.CreatedAt,
		"updated_at":             asset.UpdatedAt,
		"last_accessed":          asset.LastAccessed,
	}
}
