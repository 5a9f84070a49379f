package gallery

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/saathi-inc/saathi/internal/shared/config"
)

func setupGalleryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec(`CREATE TABLE gallery_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subscriber_id INTEGER NOT NULL,
		deleted_at TIMESTAMP NULL
	)`).Error)
	return db
}

func TestImageCounter_CountOf(t *testing.T) {
	db := setupGalleryDB(t)
	require.NoError(t, db.Exec(`INSERT INTO gallery_images (subscriber_id, deleted_at) VALUES
		(1, NULL), (1, NULL), (1, '2026-01-01 00:00:00'), (2, NULL)`).Error)

	counter, err := NewImageCounter(db, config.GalleryConfig{
		Table:            "gallery_images",
		SubscriberColumn: "subscriber_id",
		DeletedColumn:    "deleted_at",
	})
	require.NoError(t, err)

	n, err := counter.CountOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n, "soft-deleted images are not counted")

	n, err = counter.CountOf(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestImageCounter_WithoutDeletedColumn(t *testing.T) {
	db := setupGalleryDB(t)
	require.NoError(t, db.Exec(`INSERT INTO gallery_images (subscriber_id, deleted_at) VALUES
		(1, NULL), (1, '2026-01-01 00:00:00')`).Error)

	counter, err := NewImageCounter(db, config.GalleryConfig{Table: "gallery_images", SubscriberColumn: "subscriber_id"})
	require.NoError(t, err)

	n, err := counter.CountOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestNewImageCounter_RequiresTable(t *testing.T) {
	_, err := NewImageCounter(nil, config.GalleryConfig{})
	assert.Error(t, err)
}
