// Package gallery adapts the gallery collaborator's image table to the
// image counting capability required by image quota checks.
package gallery

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/saathi-inc/saathi/internal/shared/config"
	shareddb "github.com/saathi-inc/saathi/internal/shared/db"
)

// ImageCounter counts live images by querying the gallery table directly.
type ImageCounter struct {
	db               *gorm.DB
	table            string
	subscriberColumn string
	deletedColumn    string
}

// NewImageCounter creates a counter over the configured gallery table.
func NewImageCounter(db *gorm.DB, cfg config.GalleryConfig) (*ImageCounter, error) {
	if cfg.Table == "" || cfg.SubscriberColumn == "" {
		return nil, fmt.Errorf("gallery table and subscriber column are required")
	}
	return &ImageCounter{
		db:               db,
		table:            cfg.Table,
		subscriberColumn: cfg.SubscriberColumn,
		deletedColumn:    cfg.DeletedColumn,
	}, nil
}

// CountOf returns the number of non-deleted images owned by subscriberID.
func (c *ImageCounter) CountOf(ctx context.Context, subscriberID uint) (uint64, error) {
	var n int64
	err := c.db.WithContext(ctx).
		Table(c.table).
		Scopes(shareddb.NotDeleted(c.deletedColumn)).
		Where(clause.Eq{Column: clause.Column{Name: c.subscriberColumn}, Value: subscriberID}).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count gallery images: %w", err)
	}
	return uint64(n), nil
}
