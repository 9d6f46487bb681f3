package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finalthread/server/config"
	"github.com/finalthread/server/models"
	"github.com/finalthread/server/utils"
)

// capsuleFileEstimateBytes is the flat storage charge per file capsule.
// Capsule accounting uses this estimate, not the recorded blob size.
const capsuleFileEstimateBytes = 2 << 20

// DashboardController serves aggregate views: storage usage, quota and
// legacy planning progress.
type DashboardController struct {
	db *gorm.DB
}

// NewDashboardController creates a DashboardController.
func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{db: db}
}

// StorageSummary is the per-user storage accounting result.
type StorageSummary struct {
	UsedBytes        int64 `json:"used_bytes"`
	AssetBytes       int64 `json:"asset_bytes"`
	CapsuleBytes     int64 `json:"capsule_bytes"`
	AssetCount       int64 `json:"asset_count"`
	FileCapsuleCount int64 `json:"file_capsule_count"`
}

// UserStorageUsage sums asset sizes plus a fixed estimate per file capsule.
// Sizes are stored as decimal text; unparseable values are skipped with a
// warning. Query errors degrade to a zero summary so the dashboard still
// renders.
func UserStorageUsage(db *gorm.DB, userID uint) StorageSummary {
	var summary StorageSummary

	var assets []models.DigitalAsset
	if err := db.Select("id, size").Where("user_id = ?", userID).Find(&assets).Error; err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("storage usage asset query failed user=%d err=%v", userID, err)
		}
		return StorageSummary{}
	}
	for _, asset := range assets {
		n, err := strconv.ParseInt(asset.Size, 10, 64)
		if err != nil || n < 0 {
			if utils.Sugar != nil {
				utils.Sugar.Warnf("skipping unparseable asset size id=%d size=%q", asset.ID, asset.Size)
			}
			continue
		}
		summary.AssetBytes += n
	}
	summary.AssetCount = int64(len(assets))

	var fileCapsules int64
	if err := db.Model(&models.TimeCapsule{}).
		Where("user_id = ? AND type = ? AND storage_path <> ''", userID, models.CapsuleTypeFile).
		Count(&fileCapsules).Error; err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("storage usage capsule query failed user=%d err=%v", userID, err)
		}
		return StorageSummary{}
	}
	summary.FileCapsuleCount = fileCapsules
	summary.CapsuleBytes = fileCapsules * capsuleFileEstimateBytes

	summary.UsedBytes = summary.AssetBytes + summary.CapsuleBytes
	return summary
}

// Storage returns the caller's storage usage and remaining quota.
func (d *DashboardController) Storage(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	summary := UserStorageUsage(d.db, userID)
	quota := utils.RemainingStorage(summary.UsedBytes, d.planLimitMB(userID))

	utils.Success(ctx, gin.H{
		"used_bytes":       summary.UsedBytes,
		"used_formatted":   utils.FormatFileSize(summary.UsedBytes),
		"asset_bytes":      summary.AssetBytes,
		"capsule_bytes":    summary.CapsuleBytes,
		"remaining_bytes":  quota.RemainingBytes,
		"remaining":        quota.RemainingFormatted,
		"usage_percentage": quota.UsagePercentage,
	})
}

// Summary returns item counts, storage state and legacy planning completion.
// The response is cached per user for a short window, same as other hot reads.
func (d *DashboardController) Summary(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	cacheKey := dashboardCacheKey(userID)
	if b, cached := utils.CacheGetBytes(cacheKey); cached {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var messageCount, capsuleCount, assetCount, contactCount, instructionCount int64
	d.db.Model(&models.Message{}).Where("user_id = ?", userID).Count(&messageCount)
	d.db.Model(&models.TimeCapsule{}).Where("user_id = ?", userID).Count(&capsuleCount)
	d.db.Model(&models.DigitalAsset{}).Where("user_id = ?", userID).Count(&assetCount)
	d.db.Model(&models.TrustedContact{}).Where("user_id = ?", userID).Count(&contactCount)
	d.db.Model(&models.LegacyInstruction{}).Where("user_id = ?", userID).Count(&instructionCount)

	completion := utils.CompletionPercentage(
		messageCount > 0,
		capsuleCount > 0,
		assetCount > 0,
		contactCount > 0,
		instructionCount > 0,
	)

	summary := UserStorageUsage(d.db, userID)
	quota := utils.RemainingStorage(summary.UsedBytes, d.planLimitMB(userID))

	payload := gin.H{
		"messages":         messageCount,
		"capsules":         capsuleCount,
		"assets":           assetCount,
		"contacts":         contactCount,
		"has_instructions": instructionCount > 0,
		"completion":       completion,
		"storage": gin.H{
			"used_bytes":       summary.UsedBytes,
			"used_formatted":   utils.FormatFileSize(summary.UsedBytes),
			"remaining_bytes":  quota.RemainingBytes,
			"remaining":        quota.RemainingFormatted,
			"usage_percentage": quota.UsagePercentage,
		},
	}

	wrapper := struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Minute)

	utils.Success(ctx, payload)
}

func dashboardCacheKey(userID uint) string {
	return "cache:dashboard:" + strconv.Itoa(int(userID))
}

// invalidateDashboard drops the cached summary after any mutation that
// changes what it reports. Every mutating handler calls it on success.
func invalidateDashboard(userID uint) {
	utils.InvalidateByPrefix(dashboardCacheKey(userID))
}

// planLimitMB resolves the effective quota: a per-user override when set,
// otherwise the configured default.
func (d *DashboardController) planLimitMB(userID uint) int {
	var user models.User
	if err := d.db.Select("plan_limit_mb").First(&user, userID).Error; err == nil && user.PlanLimitMB > 0 {
		return user.PlanLimitMB
	}
	return config.Get().PlanLimitMB
}
