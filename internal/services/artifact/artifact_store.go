package artifact

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/checknet/backend/internal/database"
	"github.com/checknet/backend/internal/models"
	"github.com/checknet/backend/internal/services/hashing"
)

// Store derives and persists privacy-preserving shared artifacts from
// submitted fraud events. Artifacts are write-once except for the IsActive
// flag; withdrawal deactivates them, the retention sweep deletes them.
type Store struct {
	db     *gorm.DB
	hasher *hashing.Service
}

// NewStore creates a shared artifact store
func NewStore(db *gorm.DB, hasher *hashing.Service) *Store {
	return &Store{db: db, hasher: hasher}
}

// CreateFromEvent derives one artifact from a submitted event. The caller
// passes the transaction the submission runs in, so event and artifact
// commit together. Indicators are populated only at network_match level,
// and the account indicator only when the tenant opted in.
//
// No plaintext identifying field ever reaches the artifact row.
func (s *Store) CreateFromEvent(tx database.TenantScope, event *models.FraudEvent, cfg *models.TenantFraudConfig) (*models.FraudSharedArtifact, error) {
	if event.SharingLevel.Rank() <= models.SharingLevelPrivate.Rank() {
		return nil, fmt.Errorf("event %s has sharing level %q, nothing to share", event.ID, event.SharingLevel)
	}

	eventID := event.ID
	artifact := models.FraudSharedArtifact{
		TenantID:      event.TenantID,
		FraudEventID:  &eventID,
		SharingLevel:  event.SharingLevel,
		OccurredAt:    event.EventDate,
		OccurredMonth: hashing.MonthBucket(event.EventDate),
		FraudType:     event.FraudType,
		Channel:       event.Channel,
		AmountBucket:  models.AmountBucketFor(event.Amount),
		IsActive:      true,
	}

	if err := tx.Create(&artifact).Error; err != nil {
		return nil, fmt.Errorf("error creating shared artifact: %w", err)
	}

	if event.SharingLevel != models.SharingLevelNetworkMatch {
		return &artifact, nil
	}

	includeAccount := cfg.AllowAccountIndicatorSharing && event.AccountNumber != ""
	indicators := s.hasher.GenerateIndicators(hashing.CheckFields{
		RoutingNumber: event.RoutingNumber,
		PayeeName:     event.PayeeName,
		CheckNumber:   event.CheckNumber,
		Amount:        event.Amount,
		Date:          event.EventDate,
		AccountNumber: event.AccountNumber,
	}, includeAccount)

	version := s.hasher.CurrentVersion()
	for indicatorType, hash := range indicators {
		row := models.ArtifactIndicator{
			ArtifactID:    artifact.ID,
			TenantID:      artifact.TenantID,
			IndicatorType: indicatorType,
			IndicatorHash: hash,
			PepperVersion: version,
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, fmt.Errorf("error creating artifact indicator %s: %w", indicatorType, err)
		}
	}

	return &artifact, nil
}

// DeactivateForEvent flips IsActive off on the event's artifact so it
// immediately stops matching. The artifact row itself is retained.
func (s *Store) DeactivateForEvent(tx database.TenantScope, eventID uuid.UUID) error {
	result := tx.Query(&models.FraudSharedArtifact{}).
		Where("fraud_event_id = ? AND is_active = ?", eventID, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("error deactivating artifact for event %s: %w", eventID, result.Error)
	}
	return nil
}

// PruneExpired deletes artifacts older than each tenant's retention window,
// along with their indicator rows. Runs from the scheduled sweep, never on
// the request path.
func (s *Store) PruneExpired(now time.Time) (int64, error) {
	var configs []models.TenantFraudConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return 0, fmt.Errorf("error loading tenant configs: %w", err)
	}

	var pruned int64
	for _, cfg := range configs {
		cutoff := now.AddDate(0, -cfg.SharedArtifactRetentionMonths, 0)

		var expired []models.FraudSharedArtifact
		if err := s.db.
			Where("tenant_id = ? AND occurred_at < ?", cfg.TenantID, cutoff).
			Find(&expired).Error; err != nil {
			return pruned, fmt.Errorf("error finding expired artifacts: %w", err)
		}
		if len(expired) == 0 {
			continue
		}

		ids := make([]uuid.UUID, len(expired))
		for i, a := range expired {
			ids[i] = a.ID
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("artifact_id IN ?", ids).
				Delete(&models.ArtifactIndicator{}).Error; err != nil {
				return fmt.Errorf("error deleting artifact indicators: %w", err)
			}
			if err := tx.Unscoped().Where("id IN ?", ids).
				Delete(&models.FraudSharedArtifact{}).Error; err != nil {
				return fmt.Errorf("error deleting artifacts: %w", err)
			}
			return nil
		})
		if err != nil {
			return pruned, err
		}

		pruned += int64(len(ids))
		logrus.WithFields(logrus.Fields{
			"tenant_id": cfg.TenantID,
			"count":     len(ids),
		}).Info("pruned expired shared artifacts")
	}

	return pruned, nil
}
