package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/saathi-inc/saathi/internal/shared/constants"
)

// UsageEventModel is an append-only advisory record of one consumption attempt.
type UsageEventModel struct {
	ID           string    `gorm:"primaryKey;size:36"`
	SubscriberID uint      `gorm:"not null;index:idx_usage_subscriber_time,priority:1"`
	ResourceKind string    `gorm:"not null;size:20"`
	Outcome      string    `gorm:"not null;size:20"`
	Reason       string    `gorm:"size:30"`
	OccurredAt   time.Time `gorm:"not null;index:idx_usage_subscriber_time,priority:2"`
	Details      datatypes.JSON
}

// TableName specifies the table name for GORM
func (UsageEventModel) TableName() string {
	return constants.TableUsageEvents
}
