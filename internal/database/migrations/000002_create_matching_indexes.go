package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createMatchingIndexes adds the indexes the matcher depends on: indicator
// lookup must be sub-linear, and at most one open alert may exist per
// (tenant, check item).
var createMatchingIndexes = &gormigrate.Migration{
	ID: "000002_create_matching_indexes",
	Migrate: func(tx *gorm.DB) error {
		if err := tx.Exec(
			`CREATE INDEX IF NOT EXISTS idx_indicator_hash_type
			 ON artifact_indicators (indicator_hash, indicator_type)`,
		).Error; err != nil {
			return err
		}

		// Partial unique index enforcing one open alert per (tenant, check item)
		return tx.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS uidx_open_alert_per_check
			 ON network_match_alerts (tenant_id, check_item_id)
			 WHERE dismissed_at IS NULL AND deleted_at IS NULL`,
		).Error
	},
	Rollback: func(tx *gorm.DB) error {
		if err := tx.Exec(`DROP INDEX IF EXISTS uidx_open_alert_per_check`).Error; err != nil {
			return err
		}
		return tx.Exec(`DROP INDEX IF EXISTS idx_indicator_hash_type`).Error
	},
}
