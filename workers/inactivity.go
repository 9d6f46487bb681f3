package workers

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/finalthread/server/config"
	"github.com/finalthread/server/models"
	"github.com/finalthread/server/utils"
)

// StartInactivityWorker launches the proof-of-life monitor. Users who go
// silent first get a reminder, then their trusted contacts are notified and
// inactivity-triggered messages are released.
func StartInactivityWorker(db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		for {
			time.Sleep(interval)
			if db == nil {
				continue
			}
			cfg := config.Get()
			RunInactivityPass(db, time.Now(),
				time.Duration(cfg.InactivityThresholdDays)*24*time.Hour,
				time.Duration(cfg.InactivityReminderDays)*24*time.Hour)
		}
	}()
}

// RunInactivityPass evaluates every user against the inactivity threshold.
// reminderLead is how long before the threshold the reminder email goes out.
func RunInactivityPass(db *gorm.DB, now time.Time, threshold, reminderLead time.Duration) {
	sendReminders(db, now, threshold, reminderLead)
	fireCascades(db, now, threshold)
}

// sendReminders mails users whose silence is inside the reminder window.
// ReminderSentAt gates the mail so one silence period produces one reminder.
func sendReminders(db *gorm.DB, now time.Time, threshold, reminderLead time.Duration) {
	reminderCutoff := now.Add(-(threshold - reminderLead))
	thresholdCutoff := now.Add(-threshold)

	var users []models.User
	err := db.Where("last_seen_at IS NOT NULL AND last_seen_at <= ? AND last_seen_at > ?", reminderCutoff, thresholdCutoff).
		Where("reminder_sent_at IS NULL OR reminder_sent_at < last_seen_at").
		Where("email <> ''").
		Limit(100).Find(&users).Error
	if err != nil {
		logWarnf("inactivity reminder query failed: %v", err)
		return
	}

	for _, user := range users {
		subject := "Final Thread: please check in"
		body := fmt.Sprintf("Hi %s,\n\nWe have not seen you in a while. Please sign in or check in soon, otherwise your legacy plan will be set in motion.\n", user.Username)
		if err := utils.SendMail(user.Email, subject, body); err != nil {
			logWarnf("inactivity reminder failed user=%d err=%v", user.ID, err)
			continue
		}
		if err := db.Model(&models.User{}).Where("id = ?", user.ID).
			Update("reminder_sent_at", now).Error; err != nil {
			logWarnf("reminder stamp failed user=%d err=%v", user.ID, err)
		}
	}
}

// fireCascades handles users past the threshold: notify trusted contacts and
// release every pending inactivity-triggered message. The user is stamped only
// once everything went out; a partial cascade stays eligible so the next pass
// retries whatever failed. Contacts and messages carry their own stamps, so a
// retry never re-notifies anyone.
func fireCascades(db *gorm.DB, now time.Time, threshold time.Duration) {
	cutoff := now.Add(-threshold)

	var users []models.User
	err := db.Where("last_seen_at IS NOT NULL AND last_seen_at <= ?", cutoff).
		Where("inactivity_notified_at IS NULL OR inactivity_notified_at < last_seen_at").
		Limit(50).Find(&users).Error
	if err != nil {
		logWarnf("inactivity cascade query failed: %v", err)
		return
	}

	for _, user := range users {
		contactsOK := notifyTrustedContacts(db, user, now)
		messagesOK := releaseInactivityMessages(db, user, now)
		if !contactsOK || !messagesOK {
			continue
		}

		if err := db.Model(&models.User{}).Where("id = ?", user.ID).
			Update("inactivity_notified_at", now).Error; err != nil {
			logWarnf("cascade stamp failed user=%d err=%v", user.ID, err)
		}
	}
}

// notifyTrustedContacts mails every contact not yet notified and reports
// whether none remain pending afterwards.
func notifyTrustedContacts(db *gorm.DB, user models.User, now time.Time) bool {
	var contacts []models.TrustedContact
	if err := db.Where("user_id = ? AND notified_at IS NULL", user.ID).Find(&contacts).Error; err != nil {
		logWarnf("contact query failed user=%d err=%v", user.ID, err)
		return false
	}

	allOK := true
	for _, contact := range contacts {
		subject := fmt.Sprintf("Final Thread: important notice regarding %s", user.Username)
		body := fmt.Sprintf("Dear %s,\n\n%s has been inactive for an extended period and named you as a trusted contact. Their prepared messages and instructions are now being released.\n", contact.Name, user.Username)
		if err := utils.SendMail(contact.Email, subject, body); err != nil {
			logWarnf("contact notification failed contact=%d err=%v", contact.ID, err)
			allOK = false
			continue
		}

		if err := db.Model(&models.TrustedContact{}).Where("id = ?", contact.ID).
			Update("notified_at", now).Error; err != nil {
			logWarnf("contact stamp failed contact=%d err=%v", contact.ID, err)
		}

		logDelivery(db, models.DeliveryLog{
			UserID:         user.ID,
			ItemType:       models.DeliveryItemCascade,
			ItemID:         contact.ID,
			RecipientEmail: contact.Email,
			Reason:         models.DeliveryReasonInactivity,
			DeliveredAt:    now,
		})
	}
	return allOK
}

// releaseInactivityMessages delivers pending inactivity-triggered messages and
// reports whether every one of them landed.
func releaseInactivityMessages(db *gorm.DB, user models.User, now time.Time) bool {
	var pending []models.Message
	err := db.Where("user_id = ? AND trigger_condition = ? AND is_delivered = ?",
		user.ID, models.TriggerInactivity, false).
		Find(&pending).Error
	if err != nil {
		logWarnf("inactivity message query failed user=%d err=%v", user.ID, err)
		return false
	}

	allOK := true
	for _, msg := range pending {
		if !deliverMessage(db, msg, models.DeliveryReasonInactivity, now) {
			allOK = false
		}
	}
	return allOK
}
