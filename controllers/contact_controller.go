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

// ContactController manages trusted contacts.
type ContactController struct {
	db *gorm.DB
}

// NewContactController creates a ContactController.
func NewContactController(db *gorm.DB) *ContactController {
	return &ContactController{db: db}
}

type contactRequest struct {
	Name         string `json:"name" binding:"required,max=128"`
	Email        string `json:"email" binding:"required,email"`
	Relationship string `json:"relationship"`
	IsVerifier   bool   `json:"is_verifier"`
}

// Create adds a trusted contact for the caller.
func (t *ContactController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req contactRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	email := strings.TrimSpace(req.Email)
	var existing models.TrustedContact
	if err := t.db.Where("user_id = ? AND email = ?", userID, email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40950, "contact with this email already exists")
		return
	}

	contact := models.TrustedContact{
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Relationship: strings.TrimSpace(req.Relationship),
		IsVerifier:   req.IsVerifier,
	}

	if err := t.db.Create(&contact).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to create contact")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, contact)
}

// List returns all trusted contacts of the caller.
func (t *ContactController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var contacts []models.TrustedContact
	if err := t.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&contacts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to retrieve contacts")
		return
	}

	utils.Success(ctx, gin.H{"items": contacts})
}

// Update edits an existing trusted contact.
func (t *ContactController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var contact models.TrustedContact
	if err := t.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "contact not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to retrieve contact")
		return
	}

	var req contactRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	contact.Name = strings.TrimSpace(req.Name)
	contact.Email = strings.TrimSpace(req.Email)
	contact.Relationship = strings.TrimSpace(req.Relationship)
	contact.IsVerifier = req.IsVerifier

	if err := t.db.Save(&contact).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to update contact")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, contact)
}

// Delete removes a trusted contact.
func (t *ContactController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	res := t.db.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).Delete(&models.TrustedContact{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to delete contact")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40450, "contact not found")
		return
	}

	invalidateDashboard(userID)
	utils.Success(ctx, gin.H{"deleted": true})
}
