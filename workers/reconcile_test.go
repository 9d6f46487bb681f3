package workers

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finalthread/server/models"
)

type fakeBlobStore struct {
	removed   []string
	failPaths map[string]bool
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	return nil
}

func (f *fakeBlobStore) Remove(ctx context.Context, key string) error {
	if f.failPaths[key] {
		return errors.New("backend unavailable")
	}
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeBlobStore) SignedGetURL(ctx context.Context, key string) (string, error) {
	return "https://example.com/" + key, nil
}

func TestReconcileTombstones_RemovesAndClears(t *testing.T) {
	db := newTestDB(t)
	blobs := &fakeBlobStore{failPaths: map[string]bool{}}

	require.NoError(t, db.Create(&models.BlobTombstone{StoragePath: "users/1/a"}).Error)
	require.NoError(t, db.Create(&models.BlobTombstone{StoragePath: "users/1/b"}).Error)

	ReconcileTombstones(context.Background(), db, blobs)

	require.ElementsMatch(t, []string{"users/1/a", "users/1/b"}, blobs.removed)

	var remaining int64
	require.NoError(t, db.Model(&models.BlobTombstone{}).Count(&remaining).Error)
	require.Equal(t, int64(0), remaining)
}

func TestReconcileTombstones_FailureKeepsRowAndBumpsAttempts(t *testing.T) {
	db := newTestDB(t)
	blobs := &fakeBlobStore{failPaths: map[string]bool{"users/1/stuck": true}}

	require.NoError(t, db.Create(&models.BlobTombstone{StoragePath: "users/1/stuck"}).Error)
	require.NoError(t, db.Create(&models.BlobTombstone{StoragePath: "users/1/fine"}).Error)

	ReconcileTombstones(context.Background(), db, blobs)

	var stuck models.BlobTombstone
	require.NoError(t, db.Where("storage_path = ?", "users/1/stuck").First(&stuck).Error)
	require.Equal(t, 1, stuck.Attempts)

	var remaining int64
	require.NoError(t, db.Model(&models.BlobTombstone{}).Count(&remaining).Error)
	require.Equal(t, int64(1), remaining)

	// a later successful pass clears it
	blobs.failPaths = map[string]bool{}
	ReconcileTombstones(context.Background(), db, blobs)
	require.NoError(t, db.Model(&models.BlobTombstone{}).Count(&remaining).Error)
	require.Equal(t, int64(0), remaining)
}
