package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/finalthread/server/middleware"
	"github.com/finalthread/server/models"
)

func newMessageRouter(t *testing.T, db *gorm.DB, userID uint) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, userID)
		ctx.Next()
	})
	mc := NewMessageController(db)
	r.POST("/messages", mc.Create)
	r.GET("/messages/:id", mc.Get)
	r.DELETE("/messages/:id", mc.Delete)
	return r
}

func postJSON(r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateMessage_RejectsPastDeliveryDate(t *testing.T) {
	db := newTestDB(t)
	r := newMessageRouter(t, db, 1)

	w := postJSON(r, "/messages", gin.H{
		"recipient_email":   "kin@example.com",
		"subject":           "for later",
		"content":           "see you",
		"trigger_condition": "date",
		"delivery_date":     time.Now().Add(-time.Hour).Format(time.RFC3339),
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestCreateMessage_DateTriggerRequiresDate(t *testing.T) {
	db := newTestDB(t)
	r := newMessageRouter(t, db, 1)

	w := postJSON(r, "/messages", gin.H{
		"recipient_email":   "kin@example.com",
		"subject":           "for later",
		"content":           "see you",
		"trigger_condition": "date",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateMessage_InactivityTriggerDropsDate(t *testing.T) {
	db := newTestDB(t)
	r := newMessageRouter(t, db, 1)

	w := postJSON(r, "/messages", gin.H{
		"recipient_email":   "kin@example.com",
		"subject":           "if I go quiet",
		"content":           "release this",
		"trigger_condition": "inactivity",
		"delivery_date":     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})

	require.Equal(t, http.StatusOK, w.Code)

	var msg models.Message
	require.NoError(t, db.First(&msg).Error)
	require.Equal(t, models.TriggerInactivity, msg.TriggerCondition)
	require.Nil(t, msg.DeliveryDate)
}

func TestCreateMessage_SanitizesContent(t *testing.T) {
	db := newTestDB(t)
	r := newMessageRouter(t, db, 1)

	w := postJSON(r, "/messages", gin.H{
		"recipient_email":   "kin@example.com",
		"subject":           "hello",
		"content":           `<script>alert(1)</script>dear friend`,
		"trigger_condition": "date",
		"delivery_date":     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})

	require.Equal(t, http.StatusOK, w.Code)

	var msg models.Message
	require.NoError(t, db.First(&msg).Error)
	require.NotContains(t, msg.Content, "<script>")
	require.Contains(t, msg.Content, "dear friend")
}

func TestGetMessage_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Message{
		UserID: 2, RecipientEmail: "x@example.com", Subject: "private",
		Content: "secret", TriggerCondition: models.TriggerInactivity,
	}).Error)

	r := newMessageRouter(t, db, 1)

	var stored models.Message
	require.NoError(t, db.First(&stored).Error)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/messages/%d", stored.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMessage(t *testing.T) {
	db := newTestDB(t)
	msg := models.Message{
		UserID: 1, RecipientEmail: "x@example.com", Subject: "gone",
		Content: "bye", TriggerCondition: models.TriggerInactivity,
	}
	require.NoError(t, db.Create(&msg).Error)

	r := newMessageRouter(t, db, 1)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/messages/%d", msg.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}
