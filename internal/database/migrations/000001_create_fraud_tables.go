package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/checknet/backend/internal/models"
)

// createFraudTables creates the fraud intelligence core tables
var createFraudTables = &gormigrate.Migration{
	ID: "000001_create_fraud_tables",
	Migrate: func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&models.FraudEvent{},
			&models.FraudSharedArtifact{},
			&models.ArtifactIndicator{},
			&models.NetworkMatchAlert{},
			&models.TenantFraudConfig{},
			&models.PepperKey{},
		)
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Migrator().DropTable(
			&models.PepperKey{},
			&models.TenantFraudConfig{},
			&models.NetworkMatchAlert{},
			&models.ArtifactIndicator{},
			&models.FraudSharedArtifact{},
			&models.FraudEvent{},
		)
	},
}
