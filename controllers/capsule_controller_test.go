package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
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

type fakeBlobStore struct {
	removed    []string
	removeFail bool
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	return nil
}

func (f *fakeBlobStore) Remove(ctx context.Context, key string) error {
	if f.removeFail {
		return errors.New("backend unavailable")
	}
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeBlobStore) SignedGetURL(ctx context.Context, key string) (string, error) {
	return "https://blobs.example.com/" + key, nil
}

func newCapsuleRouter(t *testing.T, db *gorm.DB, blobs *fakeBlobStore, userID uint) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, userID)
		ctx.Next()
	})
	cc := NewCapsuleController(db, blobs)
	r.POST("/capsules", cc.Create)
	r.GET("/capsules/:id", cc.Get)
	r.DELETE("/capsules/:id", cc.Delete)
	return r
}

func TestCreateCapsule_RejectsPastLockDate(t *testing.T) {
	db := newTestDB(t)
	r := newCapsuleRouter(t, db, &fakeBlobStore{}, 1)

	w := postJSON(r, "/capsules", gin.H{
		"title":      "too late",
		"content":    "x",
		"lock_until": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.TimeCapsule{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestGetCapsule_LockedHidesContentEvenWhenFlagIsStale(t *testing.T) {
	db := newTestDB(t)
	// IsLocked lies: the row claims unlocked but the lock date is in the
	// future. The clock wins.
	capsule := models.TimeCapsule{
		UserID: 1, Title: "sealed", Type: models.CapsuleTypeMessage,
		Content: "secret", LockUntil: time.Now().Add(72 * time.Hour), IsLocked: false,
	}
	require.NoError(t, db.Create(&capsule).Error)

	r := newCapsuleRouter(t, db, &fakeBlobStore{}, 1)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/capsules/%d", capsule.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, false, resp.Data["unlocked"])
	require.NotContains(t, resp.Data, "content")
	require.Equal(t, float64(3), resp.Data["days_remaining"])
}

func TestGetCapsule_UnlockedReleasesContent(t *testing.T) {
	db := newTestDB(t)
	// IsLocked lies the other way: a lagging worker has not flipped it yet.
	capsule := models.TimeCapsule{
		UserID: 1, Title: "open", Type: models.CapsuleTypeMessage,
		Content: "dear future self", LockUntil: time.Now().Add(-time.Hour), IsLocked: true,
	}
	require.NoError(t, db.Create(&capsule).Error)

	r := newCapsuleRouter(t, db, &fakeBlobStore{}, 1)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/capsules/%d", capsule.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, true, resp.Data["unlocked"])
	require.Equal(t, "dear future self", resp.Data["content"])
}

func TestGetCapsule_UnlockedFileGetsSignedURL(t *testing.T) {
	db := newTestDB(t)
	capsule := models.TimeCapsule{
		UserID: 1, Title: "photos", Type: models.CapsuleTypeFile,
		StoragePath: "users/1/photos.zip", LockUntil: time.Now().Add(-time.Hour), IsLocked: true,
	}
	require.NoError(t, db.Create(&capsule).Error)

	r := newCapsuleRouter(t, db, &fakeBlobStore{}, 1)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/capsules/%d", capsule.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "https://blobs.example.com/users/1/photos.zip", resp.Data["file_url"])
}

func TestDeleteFileCapsule_RemovesBlobAndClearsTombstone(t *testing.T) {
	db := newTestDB(t)
	blobs := &fakeBlobStore{}
	capsule := models.TimeCapsule{
		UserID: 1, Title: "gone", Type: models.CapsuleTypeFile,
		StoragePath: "users/1/gone.zip", LockUntil: time.Now().Add(24 * time.Hour), IsLocked: true,
	}
	require.NoError(t, db.Create(&capsule).Error)

	r := newCapsuleRouter(t, db, blobs, 1)
	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/capsules/%d", capsule.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"users/1/gone.zip"}, blobs.removed)

	var capsules, tombstones int64
	require.NoError(t, db.Model(&models.TimeCapsule{}).Count(&capsules).Error)
	require.NoError(t, db.Model(&models.BlobTombstone{}).Count(&tombstones).Error)
	require.Equal(t, int64(0), capsules)
	require.Equal(t, int64(0), tombstones)
}

func TestDeleteFileCapsule_BlobFailureLeavesTombstone(t *testing.T) {
	db := newTestDB(t)
	blobs := &fakeBlobStore{removeFail: true}
	capsule := models.TimeCapsule{
		UserID: 1, Title: "stuck", Type: models.CapsuleTypeFile,
		StoragePath: "users/1/stuck.zip", LockUntil: time.Now().Add(24 * time.Hour), IsLocked: true,
	}
	require.NoError(t, db.Create(&capsule).Error)

	r := newCapsuleRouter(t, db, blobs, 1)
	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/capsules/%d", capsule.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// metadata is gone but the tombstone marks the blob for the reconciler
	var capsules int64
	require.NoError(t, db.Model(&models.TimeCapsule{}).Count(&capsules).Error)
	require.Equal(t, int64(0), capsules)

	var tombstone models.BlobTombstone
	require.NoError(t, db.First(&tombstone).Error)
	require.Equal(t, "users/1/stuck.zip", tombstone.StoragePath)
}
