package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/saathi-inc/saathi/internal/shared/constants"
)

// PlanModel is the persistence model for plan reference data.
// Limit and validity columns use -1 for unlimited.
type PlanModel struct {
	ID               uint   `gorm:"primaryKey;autoIncrement:false"`
	Name             string `gorm:"not null;size:100"`
	Description      string `gorm:"size:500"`
	InterestLimit    int64  `gorm:"not null;default:0"`
	ContactViewLimit int64  `gorm:"not null;default:0"`
	ImageLimit       int64  `gorm:"not null;default:0"`
	ValidityDays     int64  `gorm:"not null;default:-1"`
	Metadata         datatypes.JSON
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return constants.TablePlans
}
