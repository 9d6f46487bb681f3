package workers

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/finalthread/server/models"
	"github.com/finalthread/server/utils"
)

// StartDeliveryWorker launches a background goroutine that releases
// date-triggered messages and expired time capsules. It is best-effort and
// logs failures; anything missed is picked up on the next pass.
func StartDeliveryWorker(db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			if db == nil {
				continue
			}
			DeliverDueMessages(db, time.Now())
			UnlockDueCapsules(db, time.Now())
		}
	}()
}

// DeliverDueMessages mails every undelivered date-triggered message whose
// delivery date has passed. Each delivery is recorded in the audit log.
func DeliverDueMessages(db *gorm.DB, now time.Time) {
	var due []models.Message
	err := db.Where("trigger_condition = ? AND is_delivered = ? AND delivery_date IS NOT NULL AND delivery_date <= ?",
		models.TriggerDate, false, now).
		Limit(100).Find(&due).Error
	if err != nil {
		logWarnf("delivery query failed: %v", err)
		return
	}

	for _, msg := range due {
		deliverMessage(db, msg, models.DeliveryReasonScheduled, now)
	}
}

// deliverMessage sends one message and marks it delivered, reporting whether
// the delivery landed. The row is only flagged after the mail went out so a
// send failure retries next pass.
func deliverMessage(db *gorm.DB, msg models.Message, reason string, now time.Time) bool {
	subject := msg.Subject
	body := renderMessageBody(msg)
	if err := utils.SendMail(msg.RecipientEmail, subject, body); err != nil {
		logWarnf("message delivery failed id=%d to=%s err=%v", msg.ID, msg.RecipientEmail, err)
		return false
	}

	updates := map[string]interface{}{
		"is_delivered": true,
		"delivered_at": now,
	}
	if err := db.Model(&models.Message{}).Where("id = ?", msg.ID).Updates(updates).Error; err != nil {
		logWarnf("message state update failed id=%d err=%v", msg.ID, err)
		return false
	}

	logDelivery(db, models.DeliveryLog{
		UserID:         msg.UserID,
		ItemType:       models.DeliveryItemMessage,
		ItemID:         msg.ID,
		RecipientEmail: msg.RecipientEmail,
		Reason:         reason,
		DeliveredAt:    now,
	})
	return true
}

// UnlockDueCapsules flips capsules whose lock date has passed. Read paths
// already refuse to leak locked content, so this transition only persists the
// state and stamps the audit trail.
func UnlockDueCapsules(db *gorm.DB, now time.Time) {
	var due []models.TimeCapsule
	err := db.Where("is_locked = ? AND lock_until <= ?", true, now).
		Limit(100).Find(&due).Error
	if err != nil {
		logWarnf("capsule unlock query failed: %v", err)
		return
	}

	for _, capsule := range due {
		updates := map[string]interface{}{
			"is_locked":   false,
			"unlocked_at": now,
		}
		if err := db.Model(&models.TimeCapsule{}).Where("id = ?", capsule.ID).Updates(updates).Error; err != nil {
			logWarnf("capsule unlock failed id=%d err=%v", capsule.ID, err)
			continue
		}

		logDelivery(db, models.DeliveryLog{
			UserID:      capsule.UserID,
			ItemType:    models.DeliveryItemCapsule,
			ItemID:      capsule.ID,
			Reason:      models.DeliveryReasonUnlock,
			DeliveredAt: now,
		})
	}
}

func renderMessageBody(msg models.Message) string {
	greeting := "Hello"
	if msg.RecipientName != "" {
		greeting = "Dear " + msg.RecipientName
	}
	return fmt.Sprintf("%s,\n\nYou have received a message that was entrusted to us for delivery.\n\n%s\n", greeting, msg.Content)
}

func logDelivery(db *gorm.DB, entry models.DeliveryLog) {
	if err := db.Create(&entry).Error; err != nil {
		logWarnf("delivery log write failed item=%s id=%d err=%v", entry.ItemType, entry.ItemID, err)
	}
}

func logWarnf(format string, args ...interface{}) {
	if utils.Sugar != nil {
		utils.Sugar.Warnf(format, args...)
	}
}
