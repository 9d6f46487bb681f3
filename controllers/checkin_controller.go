package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finalthread/server/models"
	"github.com/finalthread/server/utils"
)

// CheckInController handles explicit proof-of-life check-ins and streaks.
type CheckInController struct {
	db *gorm.DB
}

// NewCheckInController creates a CheckInController.
func NewCheckInController(db *gorm.DB) *CheckInController {
	return &CheckInController{db: db}
}

// CheckIn records today's proof-of-life. One check-in per calendar day; a
// check-in the day after the previous one extends the streak, any gap resets
// it. The user row is locked so concurrent requests cannot double-count.
func (s *CheckInController) CheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	now := time.Now()
	var streak int
	var already bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}

		if user.LastCheckInAt != nil && isSameDay(*user.LastCheckInAt, now) {
			already = true
			streak = user.ConsecutiveDays
			return nil
		}

		if user.LastCheckInAt != nil && isYesterday(*user.LastCheckInAt, now) {
			streak = user.ConsecutiveDays + 1
		} else {
			streak = 1
		}

		checkIn := models.CheckIn{
			UserID:         userID,
			CheckInDate:    now,
			StreakAchieved: streak,
		}
		if err := tx.Create(&checkIn).Error; err != nil {
			return err
		}

		return tx.Model(&user).Updates(map[string]interface{}{
			"last_check_in_at": now,
			"last_seen_at":     now,
			"consecutive_days": streak,
		}).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to record check-in")
		return
	}

	if already {
		utils.Success(ctx, gin.H{
			"checked_in":       true,
			"already_today":    true,
			"consecutive_days": streak,
		})
		return
	}

	utils.Success(ctx, gin.H{
		"checked_in":       true,
		"already_today":    false,
		"consecutive_days": streak,
	})
}

// Status reports whether the caller has checked in today and the current streak.
func (s *CheckInController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	now := time.Now()
	checkedToday := user.LastCheckInAt != nil && isSameDay(*user.LastCheckInAt, now)

	utils.Success(ctx, gin.H{
		"checked_in_today": checkedToday,
		"consecutive_days": user.ConsecutiveDays,
		"last_check_in_at": user.LastCheckInAt,
		"last_seen_at":     user.LastSeenAt,
	})
}

// History returns recent check-ins, newest first.
func (s *CheckInController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	page, pageSize := parsePagination(ctx)

	var total int64
	if err := s.db.Model(&models.CheckIn{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to count check-ins")
		return
	}

	var checkIns []models.CheckIn
	if err := s.db.Where("user_id = ?", userID).Order("check_in_date DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&checkIns).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to retrieve check-ins")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      checkIns,
		"pagination": paginationMeta(page, pageSize, total),
	})
}

func isSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func isYesterday(earlier, now time.Time) bool {
	return isSameDay(earlier.AddDate(0, 0, 1), now)
}
