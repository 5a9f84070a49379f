package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/models"
)

// Models lists every persistence model owned by this service.
func Models() []interface{} {
	return []interface{}{
		&models.PlanModel{},
		&models.EntitlementModel{},
		&models.UsageEventModel{},
	}
}

// AutoMigrate creates or alters tables from the gorm models. It is meant for
// local development and tests; deployed databases use versioned scripts.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
