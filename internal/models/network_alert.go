package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MatchReason summarizes the matches found for a single indicator type.
// It carries only aggregated counts and unions, never artifact identifiers.
type MatchReason struct {
	Count          int            `json:"count"`
	FirstSeenMonth string         `json:"first_seen_month"`
	LastSeenMonth  string         `json:"last_seen_month"`
	FraudTypes     []FraudType    `json:"fraud_types"`
	Channels       []FraudChannel `json:"channels"`
}

// MatchReasonMap maps indicator type to its aggregated match reason,
// stored as a JSON column.
type MatchReasonMap map[string]MatchReason

// Value implements the driver.Valuer interface for MatchReasonMap
func (m MatchReasonMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for MatchReasonMap
func (m *MatchReasonMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, err := toBytes(value)
	if err != nil {
		return err
	}
	var result MatchReasonMap
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

// NetworkMatchAlert records that a check under review matched fraud
// indicators contributed by other tenants. At most one non-dismissed alert
// exists per (tenant, check item); rechecks update it in place.
//
// MatchedArtifactIDs is retained for internal forensics only and is never
// serialized on an external response.
type NetworkMatchAlert struct {
	Base
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index:idx_alert_tenant_check" json:"tenant_id"`
	CheckItemID uuid.UUID `gorm:"type:uuid;not null;index:idx_alert_tenant_check" json:"check_item_id"`

	MatchedArtifactIDs UUIDSlice      `gorm:"type:text" json:"-"`
	MatchReasons       MatchReasonMap `gorm:"type:text" json:"match_reasons"`

	Severity             AlertSeverity `gorm:"type:varchar(16);not null" json:"severity"`
	TotalMatches         int           `gorm:"not null" json:"total_matches"`
	DistinctInstitutions int           `gorm:"not null" json:"distinct_institutions"`

	EarliestMatch *time.Time `json:"earliest_match,omitempty"`
	LatestMatch   *time.Time `json:"latest_match,omitempty"`

	DismissedAt   *time.Time `json:"dismissed_at,omitempty"`
	DismissedBy   *uuid.UUID `gorm:"type:uuid" json:"dismissed_by,omitempty"`
	DismissReason string     `gorm:"type:text" json:"dismiss_reason,omitempty"`

	LastCheckedAt time.Time `gorm:"not null" json:"last_checked_at"`
}

// Open reports whether the alert has not been dismissed
func (a *NetworkMatchAlert) Open() bool {
	return a.DismissedAt == nil
}
