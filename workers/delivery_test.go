package workers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finalthread/server/config"
	"github.com/finalthread/server/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.TimeCapsule{},
		&models.TrustedContact{},
		&models.DeliveryLog{},
		&models.BlobTombstone{},
	))
	return db
}

func TestUnlockDueCapsules(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	due := models.TimeCapsule{
		UserID: 1, Title: "due", Type: models.CapsuleTypeMessage,
		Content: "open me", LockUntil: now.Add(-time.Hour), IsLocked: true,
	}
	future := models.TimeCapsule{
		UserID: 1, Title: "future", Type: models.CapsuleTypeMessage,
		Content: "not yet", LockUntil: now.Add(48 * time.Hour), IsLocked: true,
	}
	require.NoError(t, db.Create(&due).Error)
	require.NoError(t, db.Create(&future).Error)

	UnlockDueCapsules(db, now)

	var unlocked models.TimeCapsule
	require.NoError(t, db.First(&unlocked, due.ID).Error)
	require.False(t, unlocked.IsLocked)
	require.NotNil(t, unlocked.UnlockedAt)

	var stillLocked models.TimeCapsule
	require.NoError(t, db.First(&stillLocked, future.ID).Error)
	require.True(t, stillLocked.IsLocked)
	require.Nil(t, stillLocked.UnlockedAt)

	var logs []models.DeliveryLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, models.DeliveryItemCapsule, logs[0].ItemType)
	require.Equal(t, due.ID, logs[0].ItemID)
	require.Equal(t, models.DeliveryReasonUnlock, logs[0].Reason)
}

func TestUnlockDueCapsules_Idempotent(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	capsule := models.TimeCapsule{
		UserID: 1, Title: "due", Type: models.CapsuleTypeMessage,
		Content: "open me", LockUntil: now.Add(-time.Hour), IsLocked: true,
	}
	require.NoError(t, db.Create(&capsule).Error)

	UnlockDueCapsules(db, now)
	UnlockDueCapsules(db, now)

	var logs []models.DeliveryLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
}

func TestDeliverDueMessages_MailFailureLeavesMessagePending(t *testing.T) {
	// SMTP is deliberately unconfigured: the send fails and the message must
	// stay queued for the next pass.
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})
	db := newTestDB(t)
	now := time.Now()

	past := now.Add(-time.Hour)
	msg := models.Message{
		UserID: 1, RecipientEmail: "kin@example.com", Subject: "hello",
		Content: "goodbye", TriggerCondition: models.TriggerDate,
		DeliveryDate: &past,
	}
	require.NoError(t, db.Create(&msg).Error)

	DeliverDueMessages(db, now)

	var reloaded models.Message
	require.NoError(t, db.First(&reloaded, msg.ID).Error)
	require.False(t, reloaded.IsDelivered)
	require.Nil(t, reloaded.DeliveredAt)

	var logCount int64
	require.NoError(t, db.Model(&models.DeliveryLog{}).Count(&logCount).Error)
	require.Equal(t, int64(0), logCount)
}

func TestDeliverDueMessages_SkipsInactivityAndFuture(t *testing.T) {
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})
	db := newTestDB(t)
	now := time.Now()

	future := now.Add(24 * time.Hour)
	require.NoError(t, db.Create(&models.Message{
		UserID: 1, RecipientEmail: "a@example.com", Subject: "later",
		Content: "x", TriggerCondition: models.TriggerDate, DeliveryDate: &future,
	}).Error)
	require.NoError(t, db.Create(&models.Message{
		UserID: 1, RecipientEmail: "b@example.com", Subject: "silence",
		Content: "y", TriggerCondition: models.TriggerInactivity,
	}).Error)

	DeliverDueMessages(db, now)

	var delivered int64
	require.NoError(t, db.Model(&models.Message{}).Where("is_delivered = ?", true).Count(&delivered).Error)
	require.Equal(t, int64(0), delivered)
}
