package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finalthread/server/models"
	"github.com/finalthread/server/utils"
)

// InstructionController manages the singleton legacy instructions document.
type InstructionController struct {
	db *gorm.DB
}

// NewInstructionController creates an InstructionController.
func NewInstructionController(db *gorm.DB) *InstructionController {
	return &InstructionController{db: db}
}

// Get returns the caller's legacy instructions, or an empty document when
// none have been written yet.
func (i *InstructionController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var instruction models.LegacyInstruction
	if err := i.db.Where("user_id = ?", userID).First(&instruction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Success(ctx, gin.H{"content": ""})
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to retrieve instructions")
		return
	}

	utils.Success(ctx, instruction)
}

// Put creates or replaces the caller's legacy instructions. One row per user.
func (i *InstructionController) Put(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))

	var instruction models.LegacyInstruction
	err := i.db.Where("user_id = ?", userID).First(&instruction).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		instruction = models.LegacyInstruction{UserID: userID, Content: content}
		if err := i.db.Create(&instruction).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to save instructions")
			return
		}
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to retrieve instructions")
		return
	default:
		instruction.Content = content
		if err := i.db.Save(&instruction).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to save instructions")
			return
		}
	}

	invalidateDashboard(userID)
	utils.Success(ctx, instruction)
}
