package tenantcfg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/checknet/backend/internal/models"
)

// Service manages per-tenant fraud sharing policy. Config rows are created
// lazily with the most private defaults, and cached in redis because every
// match check reads them.
type Service struct {
	db    *gorm.DB
	cache *redis.Client
	ttl   time.Duration
}

// NewService creates a tenant fraud config service. cache may be nil, in
// which case every read goes to the database.
func NewService(db *gorm.DB, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{db: db, cache: cache, ttl: ttl}
}

// UpdateInput carries the updatable policy fields. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	DefaultSharingLevel           *models.SharingLevel  `json:"default_sharing_level"`
	AllowNarrativeSharing         *bool                 `json:"allow_narrative_sharing"`
	AllowAccountIndicatorSharing  *bool                 `json:"allow_account_indicator_sharing"`
	ReceiveNetworkAlerts          *bool                 `json:"receive_network_alerts"`
	MinimumAlertSeverity          *models.AlertSeverity `json:"minimum_alert_severity"`
	SharedArtifactRetentionMonths *int                  `json:"shared_artifact_retention_months"`
}

// GetOrCreate returns the tenant's fraud config, creating it with
// most-private defaults on first access.
func (s *Service) GetOrCreate(ctx context.Context, tenantID uuid.UUID) (*models.TenantFraudConfig, error) {
	if cached := s.fromCache(ctx, tenantID); cached != nil {
		return cached, nil
	}

	var cfg models.TenantFraudConfig
	err := s.db.Where("tenant_id = ?", tenantID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = *models.DefaultTenantFraudConfig(tenantID)
		if err := s.db.Create(&cfg).Error; err != nil {
			return nil, fmt.Errorf("error creating tenant fraud config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("error finding tenant fraud config: %w", err)
	}

	s.toCache(ctx, &cfg)
	return &cfg, nil
}

// Update applies policy changes and invalidates the cache
func (s *Service) Update(ctx context.Context, tenantID uuid.UUID, input UpdateInput) (*models.TenantFraudConfig, error) {
	cfg, err := s.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if input.DefaultSharingLevel != nil {
		if !input.DefaultSharingLevel.Valid() {
			return nil, fmt.Errorf("invalid sharing level: %q", *input.DefaultSharingLevel)
		}
		cfg.DefaultSharingLevel = *input.DefaultSharingLevel
	}
	if input.AllowNarrativeSharing != nil {
		cfg.AllowNarrativeSharing = *input.AllowNarrativeSharing
	}
	if input.AllowAccountIndicatorSharing != nil {
		cfg.AllowAccountIndicatorSharing = *input.AllowAccountIndicatorSharing
	}
	if input.ReceiveNetworkAlerts != nil {
		cfg.ReceiveNetworkAlerts = *input.ReceiveNetworkAlerts
	}
	if input.MinimumAlertSeverity != nil {
		if !input.MinimumAlertSeverity.Valid() {
			return nil, fmt.Errorf("invalid alert severity: %q", *input.MinimumAlertSeverity)
		}
		cfg.MinimumAlertSeverity = *input.MinimumAlertSeverity
	}
	if input.SharedArtifactRetentionMonths != nil {
		if *input.SharedArtifactRetentionMonths < 1 {
			return nil, errors.New("retention months must be at least 1")
		}
		cfg.SharedArtifactRetentionMonths = *input.SharedArtifactRetentionMonths
	}

	if err := s.db.Save(cfg).Error; err != nil {
		return nil, fmt.Errorf("error updating tenant fraud config: %w", err)
	}

	s.invalidate(ctx, tenantID)
	return cfg, nil
}

func cacheKey(tenantID uuid.UUID) string {
	return "fraud:config:" + tenantID.String()
}

func (s *Service) fromCache(ctx context.Context, tenantID uuid.UUID) *models.TenantFraudConfig {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, cacheKey(tenantID)).Bytes()
	if err != nil {
		return nil
	}
	var cfg models.TenantFraudConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil
	}
	return &cfg
}

func (s *Service) toCache(ctx context.Context, cfg *models.TenantFraudConfig) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(cfg.TenantID), data, s.ttl).Err(); err != nil {
		logrus.WithError(err).Warn("failed to cache tenant fraud config")
	}
}

func (s *Service) invalidate(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(tenantID)).Err(); err != nil {
		logrus.WithError(err).Warn("failed to invalidate tenant fraud config cache")
	}
}
