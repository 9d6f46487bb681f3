package workers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finalthread/server/config"
	"github.com/finalthread/server/models"
)

func TestFireCascades_StampsInactiveUsersOnce(t *testing.T) {
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})
	db := newTestDB(t)
	now := time.Now()
	threshold := 30 * 24 * time.Hour

	silent := now.Add(-40 * 24 * time.Hour)
	active := now.Add(-2 * 24 * time.Hour)

	// no contacts and no pending messages, so the cascade completes trivially
	inactive := models.User{Username: "ghost", LastSeenAt: &silent}
	healthy := models.User{Username: "alive", LastSeenAt: &active}
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Create(&healthy).Error)

	fireCascades(db, now, threshold)

	var stamped models.User
	require.NoError(t, db.First(&stamped, inactive.ID).Error)
	require.NotNil(t, stamped.InactivityNotifiedAt)

	var untouched models.User
	require.NoError(t, db.First(&untouched, healthy.ID).Error)
	require.Nil(t, untouched.InactivityNotifiedAt)

	// a second pass must not re-fire for the same silence period
	fireCascades(db, now.Add(time.Hour), threshold)
	var count int64
	require.NoError(t, db.Model(&models.DeliveryLog{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestFireCascades_FailedCascadeStaysEligibleForRetry(t *testing.T) {
	// With SMTP unconfigured every mail fails. Neither the contact nor the
	// user may be stamped, so the next pass picks the cascade up again.
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})
	db := newTestDB(t)
	now := time.Now()
	threshold := 30 * 24 * time.Hour

	silent := now.Add(-60 * 24 * time.Hour)
	user := models.User{Username: "ghost", Email: "ghost@example.com", LastSeenAt: &silent}
	require.NoError(t, db.Create(&user).Error)
	contact := models.TrustedContact{UserID: user.ID, Name: "Next of Kin", Email: "kin@example.com"}
	require.NoError(t, db.Create(&contact).Error)
	msg := models.Message{
		UserID: user.ID, RecipientEmail: "kin@example.com", Subject: "if I go quiet",
		Content: "release this", TriggerCondition: models.TriggerInactivity,
	}
	require.NoError(t, db.Create(&msg).Error)

	fireCascades(db, now, threshold)
	fireCascades(db, now.Add(time.Hour), threshold)

	var reloadedContact models.TrustedContact
	require.NoError(t, db.First(&reloadedContact, contact.ID).Error)
	require.Nil(t, reloadedContact.NotifiedAt)

	var reloadedMsg models.Message
	require.NoError(t, db.First(&reloadedMsg, msg.ID).Error)
	require.False(t, reloadedMsg.IsDelivered)

	// the user stays unstamped, which is what keeps the retry possible
	var reloadedUser models.User
	require.NoError(t, db.First(&reloadedUser, user.ID).Error)
	require.Nil(t, reloadedUser.InactivityNotifiedAt)
}

func TestSendReminders_WindowSelection(t *testing.T) {
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})
	db := newTestDB(t)
	now := time.Now()
	threshold := 30 * 24 * time.Hour
	lead := 7 * 24 * time.Hour

	// 25 days silent: inside the reminder window (23..30 days)
	inWindow := now.Add(-25 * 24 * time.Hour)
	// 10 days silent: too recent for a reminder
	recent := now.Add(-10 * 24 * time.Hour)

	due := models.User{Username: "due", Email: "due@example.com", LastSeenAt: &inWindow}
	fresh := models.User{Username: "fresh", Email: "fresh@example.com", LastSeenAt: &recent}
	require.NoError(t, db.Create(&due).Error)
	require.NoError(t, db.Create(&fresh).Error)

	sendReminders(db, now, threshold, lead)

	// SMTP is unconfigured so the reminder mail fails; neither user may be
	// stamped, which keeps the reminder pending for the next pass.
	var reloadedDue models.User
	require.NoError(t, db.First(&reloadedDue, due.ID).Error)
	require.Nil(t, reloadedDue.ReminderSentAt)

	var reloadedFresh models.User
	require.NoError(t, db.First(&reloadedFresh, fresh.ID).Error)
	require.Nil(t, reloadedFresh.ReminderSentAt)
}
