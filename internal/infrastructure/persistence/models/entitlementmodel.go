package models

import (
	"time"

	"github.com/saathi-inc/saathi/internal/shared/constants"
)

// EntitlementModel is the one-row-per-subscriber entitlement record.
// Limit columns use -1 for unlimited; ExpiresAt nil means lifetime.
type EntitlementModel struct {
	SubscriberID     uint       `gorm:"primaryKey;autoIncrement:false"`
	PlanID           uint       `gorm:"not null;index"`
	InterestLimit    int64      `gorm:"not null;default:0"`
	InterestUsed     int64      `gorm:"not null;default:0"`
	ContactViewLimit int64      `gorm:"not null;default:0"`
	ContactViewUsed  int64      `gorm:"not null;default:0"`
	ImageLimit       int64      `gorm:"not null;default:0"`
	ExpiresAt        *time.Time `gorm:"index"`
	Version          int        `gorm:"not null;default:1"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM
func (EntitlementModel) TableName() string {
	return constants.TableEntitlements
}

// Column names used by conditional updates
const (
	ColumnInterestLimit    = "interest_limit"
	ColumnInterestUsed     = "interest_used"
	ColumnContactViewLimit = "contact_view_limit"
	ColumnContactViewUsed  = "contact_view_used"
)
