package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finalthread/server/config"
	"github.com/finalthread/server/models"
	"github.com/finalthread/server/utils"
)

// ActivityRecorder refreshes users.last_seen_at after each authenticated
// request. This is the proof-of-life signal the inactivity worker evaluates,
// so the write is throttled per user via Redis rather than skipped.
func ActivityRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		val, exists := c.Get(ContextUserIDKey)
		if !exists {
			return
		}
		userID, ok := val.(uint)
		if !ok {
			return
		}

		if !activityWriteDue(userID) {
			return
		}

		now := time.Now()
		if err := db.Model(&models.User{}).Where("id = ?", userID).
			Update("last_seen_at", now).Error; err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("activity update failed user=%d err=%v", userID, err)
		}
	}
}

// activityWriteDue returns true at most once per throttle window per user.
// On Redis failure it allows the write; an extra UPDATE is cheaper than a
// missed proof-of-life signal.
func activityWriteDue(userID uint) bool {
	rc := utils.GetRedis()
	if rc == nil {
		return true
	}
	cfg := config.Get()
	window := time.Duration(cfg.ActivityWriteThrottleMins) * time.Minute
	if window <= 0 {
		window = time.Hour
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	ok, err := rc.SetNX(ctx, "activity:seen:"+strconv.Itoa(int(userID)), "1", window).Result()
	if err != nil {
		return true
	}
	return ok
}
