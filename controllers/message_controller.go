package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finalthread/server/middleware"
	"github.com/finalthread/server/models"
	"github.com/finalthread/server/utils"
)

// MessageController manages legacy messages held for future delivery.
type MessageController struct {
	db *gorm.DB
}

// NewMessageController creates a MessageController.
func NewMessageController(db *gorm.DB) *MessageController {
	return &MessageController{db: db}
}

type messageRequest struct {
	RecipientName    string     `json:"recipient_name"`
	RecipientEmail   string     `json:"recipient_email" binding:"required,email"`
	Subject          string     `json:"subject" binding:"required,max=255"`
	Content          string     `json:"content" binding:"required"`
	MessageType      string     `json:"message_type"`
	TriggerCondition string     `json:"trigger_condition"`
	DeliveryDate     *time.Time `json:"delivery_date"`
}

// Create stores a new message. Date-triggered messages must carry a delivery
// date strictly in the future; the clock check happens here, not in the client.
func (m *MessageController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req messageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	msg := models.Message{
		UserID:           userID,
		RecipientName:    strings.TrimSpace(req.RecipientName),
		RecipientEmail:   strings.TrimSpace(req.RecipientEmail),
		Subject:          strings.TrimSpace(req.Subject),
		Content:          utils.Sanitize(req.Content),
		MessageType:      normalizeMessageType(req.MessageType),
		TriggerCondition: normalizeTrigger(req.TriggerCondition),
		DeliveryDate:     req.DeliveryDate,
	}

	if msg.MessageType == "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, "unknown message type")
		return
	}
	if msg.TriggerCondition == "" {
		utils.Error(ctx, http.StatusBadRequest, 40012, "unknown trigger condition")
		return
	}
	if msg.TriggerCondition == models.TriggerDate {
		if msg.DeliveryDate == nil {
			utils.Error(ctx, http.StatusBadRequest, 40013, "delivery date is required for date-triggered messages")
			return
		}
		if !msg.DeliveryDate.After(time.Now()) {
			utils.Error(ctx, http.StatusBadRequest, 40014, "delivery date must be in the future")
			return
		}
	} else {
		// Inactivity-triggered messages release when the owner goes silent;
		// a delivery date would never be honored.
		msg.DeliveryDate = nil
	}

	if err := m.db.Create(&msg).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to create message")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, msg)
}

// List returns the caller's messages, newest first, with pagination.
func (m *MessageController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	page, pageSize := parsePagination(ctx)

	query := m.db.Model(&models.Message{}).Where("user_id = ?", userID)
	if t := strings.TrimSpace(ctx.Query("trigger_condition")); t != "" {
		query = query.Where("trigger_condition = ?", t)
	}
	if v := strings.TrimSpace(ctx.Query("delivered")); v != "" {
		query = query.Where("is_delivered = ?", v == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to count messages")
		return
	}

	var messages []models.Message
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&messages).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to retrieve messages")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      messages,
		"pagination": paginationMeta(page, pageSize, total),
	})
}

// Get returns a single message owned by the caller.
func (m *MessageController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var msg models.Message
	if err := m.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40412, "message not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to retrieve message")
		return
	}

	utils.Success(ctx, msg)
}

// Update rewrites an undelivered message. Delivered messages are immutable.
func (m *MessageController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var msg models.Message
	if err := m.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40412, "message not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to retrieve message")
		return
	}

	if msg.IsDelivered {
		utils.Error(ctx, http.StatusConflict, 40910, "message already delivered")
		return
	}

	var req messageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	msg.RecipientName = strings.TrimSpace(req.RecipientName)
	msg.RecipientEmail = strings.TrimSpace(req.RecipientEmail)
	msg.Subject = strings.TrimSpace(req.Subject)
	msg.Content = utils.Sanitize(req.Content)

	if mt := normalizeMessageType(req.MessageType); mt != "" {
		msg.MessageType = mt
	} else {
		utils.Error(ctx, http.StatusBadRequest, 40011, "unknown message type")
		return
	}
	if tc := normalizeTrigger(req.TriggerCondition); tc != "" {
		msg.TriggerCondition = tc
	} else {
		utils.Error(ctx, http.StatusBadRequest, 40012, "unknown trigger condition")
		return
	}

	if msg.TriggerCondition == models.TriggerDate {
		if req.DeliveryDate == nil {
			utils.Error(ctx, http.StatusBadRequest, 40013, "delivery date is required for date-triggered messages")
			return
		}
		if !req.DeliveryDate.After(time.Now()) {
			utils.Error(ctx, http.StatusBadRequest, 40014, "delivery date must be in the future")
			return
		}
		msg.DeliveryDate = req.DeliveryDate
	} else {
		msg.DeliveryDate = nil
	}

	if err := m.db.Save(&msg).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to update message")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, msg)
}

// Delete removes a message owned by the caller.
func (m *MessageController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	res := m.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).Delete(&models.Message{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to delete message")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40412, "message not found")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, gin.H{"deleted": true})
}

func normalizeMessageType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", models.MessageTypeLetter:
		return models.MessageTypeLetter
	case models.MessageTypeInstruction:
		return models.MessageTypeInstruction
	case models.MessageTypeFarewell:
		return models.MessageTypeFarewell
	default:
		return ""
	}
}

func normalizeTrigger(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", models.TriggerDate:
		return models.TriggerDate
	case models.TriggerInactivity:
		return models.TriggerInactivity
	default:
		return ""
	}
}

// getUserID pulls the authenticated user id set by the auth middleware.
// Responds with 401 and returns false when missing.
func getUserID(ctx *gin.Context) (uint, bool) {
	val, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return 0, false
	}
	id, ok := val.(uint)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return 0, false
	}
	return id, true
}

func parsePagination(ctx *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 10
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}

func paginationMeta(page, pageSize int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}
