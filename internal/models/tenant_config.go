package models

import "github.com/google/uuid"

// TenantFraudConfig is a tenant's fraud-sharing policy. A row is created
// lazily with the most private defaults the first time a tenant touches the
// fraud subsystem.
type TenantFraudConfig struct {
	Base
	TenantID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"tenant_id"`

	DefaultSharingLevel           SharingLevel  `gorm:"type:varchar(16);not null;default:'private'" json:"default_sharing_level"`
	AllowNarrativeSharing         bool          `gorm:"not null;default:false" json:"allow_narrative_sharing"`
	AllowAccountIndicatorSharing  bool          `gorm:"not null;default:false" json:"allow_account_indicator_sharing"`
	ReceiveNetworkAlerts          bool          `gorm:"not null;default:true" json:"receive_network_alerts"`
	MinimumAlertSeverity          AlertSeverity `gorm:"type:varchar(16);not null;default:'low'" json:"minimum_alert_severity"`
	SharedArtifactRetentionMonths int           `gorm:"not null;default:24" json:"shared_artifact_retention_months"`
}

// DefaultTenantFraudConfig returns the most private configuration for a
// tenant that has never opted in to anything.
func DefaultTenantFraudConfig(tenantID uuid.UUID) *TenantFraudConfig {
	return &TenantFraudConfig{
		TenantID:                      tenantID,
		DefaultSharingLevel:           SharingLevelPrivate,
		AllowNarrativeSharing:         false,
		AllowAccountIndicatorSharing:  false,
		ReceiveNetworkAlerts:          true,
		MinimumAlertSeverity:          AlertSeverityLow,
		SharedArtifactRetentionMonths: 24,
	}
}
