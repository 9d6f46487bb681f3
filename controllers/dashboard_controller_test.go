package controllers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finalthread/server/config"
	"github.com/finalthread/server/models"
	"github.com/finalthread/server/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if utils.Sugar == nil {
		utils.Sugar = zap.NewNop().Sugar()
	}
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.TimeCapsule{},
		&models.DigitalAsset{},
		&models.TrustedContact{},
		&models.LegacyInstruction{},
		&models.CheckIn{},
		&models.DeliveryLog{},
		&models.BlobTombstone{},
	))
	return db
}

func TestDashboardCacheKey_PerUser(t *testing.T) {
	require.Equal(t, "cache:dashboard:42", dashboardCacheKey(42))
	require.NotEqual(t, dashboardCacheKey(1), dashboardCacheKey(2))
}

func TestUserStorageUsage_Empty(t *testing.T) {
	db := newTestDB(t)

	summary := UserStorageUsage(db, 1)

	require.Equal(t, int64(0), summary.UsedBytes)
	require.Equal(t, int64(0), summary.AssetCount)
	require.Equal(t, int64(0), summary.FileCapsuleCount)
}

func TestUserStorageUsage_SumsAssetSizes(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.DigitalAsset{
		UserID: 1, Name: "a.pdf", Size: "1000", StoragePath: "k/a",
	}).Error)
	require.NoError(t, db.Create(&models.DigitalAsset{
		UserID: 1, Name: "b.jpg", Size: "2048", StoragePath: "k/b",
	}).Error)
	// another user's asset must not count
	require.NoError(t, db.Create(&models.DigitalAsset{
		UserID: 2, Name: "c.jpg", Size: "9999", StoragePath: "k/c",
	}).Error)

	summary := UserStorageUsage(db, 1)

	require.Equal(t, int64(3048), summary.AssetBytes)
	require.Equal(t, int64(3048), summary.UsedBytes)
	require.Equal(t, int64(2), summary.AssetCount)
}

func TestUserStorageUsage_SkipsMalformedSizes(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.DigitalAsset{
		UserID: 1, Name: "good.pdf", Size: "500", StoragePath: "k/good",
	}).Error)
	require.NoError(t, db.Create(&models.DigitalAsset{
		UserID: 1, Name: "bad.pdf", Size: "not-a-number", StoragePath: "k/bad",
	}).Error)
	require.NoError(t, db.Create(&models.DigitalAsset{
		UserID: 1, Name: "neg.pdf", Size: "-7", StoragePath: "k/neg",
	}).Error)

	summary := UserStorageUsage(db, 1)

	require.Equal(t, int64(500), summary.AssetBytes)
	require.Equal(t, int64(3), summary.AssetCount)
}

func TestUserStorageUsage_ChargesFileCapsuleEstimate(t *testing.T) {
	db := newTestDB(t)
	lock := time.Now().Add(24 * time.Hour)

	require.NoError(t, db.Create(&models.TimeCapsule{
		UserID: 1, Title: "file capsule", Type: models.CapsuleTypeFile,
		StoragePath: "k/cap", LockUntil: lock, IsLocked: true,
	}).Error)
	// message capsules and file capsules without a blob carry no charge
	require.NoError(t, db.Create(&models.TimeCapsule{
		UserID: 1, Title: "message capsule", Type: models.CapsuleTypeMessage,
		Content: "hello", LockUntil: lock, IsLocked: true,
	}).Error)
	require.NoError(t, db.Create(&models.TimeCapsule{
		UserID: 1, Title: "pathless", Type: models.CapsuleTypeFile,
		LockUntil: lock, IsLocked: true,
	}).Error)

	summary := UserStorageUsage(db, 1)

	require.Equal(t, int64(1), summary.FileCapsuleCount)
	require.Equal(t, int64(capsuleFileEstimateBytes), summary.CapsuleBytes)
	require.Equal(t, int64(capsuleFileEstimateBytes), summary.UsedBytes)
}
