package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/checknet/backend/internal/database"
	"github.com/checknet/backend/internal/models"
	"github.com/checknet/backend/internal/services/hashing"
	"github.com/checknet/backend/internal/services/tenantcfg"
)

var (
	// ErrMatchingUnavailable wraps storage failures during a match check.
	// A failed lookup aborts the whole attempt; the matcher never returns
	// a partial or fabricated result.
	ErrMatchingUnavailable = errors.New("matching unavailable")
	// ErrAlertNotFound is returned when dismissing an unknown alert
	ErrAlertNotFound = errors.New("network match alert not found")
	// ErrAlertAlreadyDismissed is returned when dismissing a closed alert
	ErrAlertAlreadyDismissed = errors.New("network match alert already dismissed")
)

// CheckItem carries the fields of a check under review, consumed read-only
// from the check-review subsystem.
type CheckItem struct {
	ID            uuid.UUID `json:"id" binding:"required"`
	RoutingNumber string    `json:"routing_number"`
	PayeeName     string    `json:"payee_name"`
	CheckNumber   string    `json:"check_number"`
	Amount        float64   `json:"amount"`
	PresentedAt   time.Time `json:"presented_at"`
}

// AlertSummary is the caller-visible view of an alert. It never carries
// artifact identifiers or indicator hashes.
type AlertSummary struct {
	AlertID              uuid.UUID             `json:"alert_id"`
	Severity             models.AlertSeverity  `json:"severity"`
	TotalMatches         int                   `json:"total_matches"`
	DistinctInstitutions int                   `json:"distinct_institutions"`
	MatchReasons         models.MatchReasonMap `json:"match_reasons"`
	EarliestMatch        *time.Time            `json:"earliest_match,omitempty"`
	LatestMatch          *time.Time            `json:"latest_match,omitempty"`
}

// MatchResult is what a match check returns to the caller. HasAlert is
// false both when nothing matched and when the alert fell below the
// tenant's minimum severity; in the latter case the alert is still stored.
type MatchResult struct {
	HasAlert bool          `json:"has_alert"`
	Alert    *AlertSummary `json:"alert,omitempty"`
}

// Service matches checks under review against fraud indicators contributed
// by other tenants.
type Service struct {
	db      *gorm.DB
	hasher  *hashing.Service
	configs *tenantcfg.Service
}

// NewService creates a cross-tenant matching service. The raw db handle is
// required because indicator lookup is the one deliberate cross-tenant read
// in the system; every write still goes through the tenant scope.
func NewService(db *gorm.DB, hasher *hashing.Service, configs *tenantcfg.Service) *Service {
	return &Service{db: db, hasher: hasher, configs: configs}
}

// matchRow is one (indicator, artifact) hit from the join query
type matchRow struct {
	ArtifactID    uuid.UUID
	TenantID      uuid.UUID
	IndicatorType string
	OccurredAt    time.Time
	OccurredMonth string
	FraudType     models.FraudType
	Channel       models.FraudChannel
}

// CheckNetworkMatches generates the tenant's indicator hashes across all
// active pepper versions, looks them up against other tenants' active
// network_match artifacts, scores severity, and upserts the open alert for
// the check item.
func (s *Service) CheckNetworkMatches(ctx context.Context, scope database.TenantScope, item CheckItem) (*MatchResult, error) {
	cfg, err := s.configs.GetOrCreate(ctx, scope.TenantID())
	if err != nil {
		return nil, err
	}
	if !cfg.ReceiveNetworkAlerts {
		return &MatchResult{HasAlert: false}, nil
	}

	fields := hashing.CheckFields{
		RoutingNumber: item.RoutingNumber,
		PayeeName:     item.PayeeName,
		CheckNumber:   item.CheckNumber,
		Amount:        item.Amount,
		Date:          item.PresentedAt,
	}

	var hashes []string
	for _, indicators := range s.hasher.GenerateIndicatorsForMatching(fields, false) {
		for _, h := range indicators {
			hashes = append(hashes, h)
		}
	}
	if len(hashes) == 0 {
		return &MatchResult{HasAlert: false}, nil
	}

	var rows []matchRow
	err = s.db.
		Table("artifact_indicators AS ai").
		Select("ai.artifact_id, a.tenant_id, ai.indicator_type, a.occurred_at, a.occurred_month, a.fraud_type, a.channel").
		Joins("JOIN fraud_shared_artifacts AS a ON a.id = ai.artifact_id").
		Where("ai.indicator_hash IN ?", hashes).
		Where("a.is_active = ?", true).
		Where("a.sharing_level = ?", models.SharingLevelNetworkMatch).
		Where("a.tenant_id <> ?", scope.TenantID()).
		Where("a.deleted_at IS NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchingUnavailable, err)
	}

	if len(rows) == 0 {
		return &MatchResult{HasAlert: false}, nil
	}

	agg := aggregate(rows)
	severity := severityFor(agg.totalMatches, len(agg.reasons))

	alert, err := s.upsertAlert(scope, item.ID, agg, severity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchingUnavailable, err)
	}

	if severity.Rank() < cfg.MinimumAlertSeverity.Rank() {
		return &MatchResult{HasAlert: false}, nil
	}

	return &MatchResult{
		HasAlert: true,
		Alert: &AlertSummary{
			AlertID:              alert.ID,
			Severity:             alert.Severity,
			TotalMatches:         alert.TotalMatches,
			DistinctInstitutions: alert.DistinctInstitutions,
			MatchReasons:         alert.MatchReasons,
			EarliestMatch:        alert.EarliestMatch,
			LatestMatch:          alert.LatestMatch,
		},
	}, nil
}

// ListOpenAlerts returns the tenant's open alerts, newest first
func (s *Service) ListOpenAlerts(scope database.TenantScope) ([]models.NetworkMatchAlert, error) {
	var alerts []models.NetworkMatchAlert
	err := scope.Query(&models.NetworkMatchAlert{}).
		Where("dismissed_at IS NULL").
		Order("last_checked_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	return alerts, nil
}

// DismissAlert closes an open alert with a reason
func (s *Service) DismissAlert(scope database.TenantScope, alertID, userID uuid.UUID, reason string) error {
	return scope.Transaction(func(tx database.TenantScope) error {
		var alert models.NetworkMatchAlert
		err := tx.Locked(&models.NetworkMatchAlert{}).
			Where("id = ?", alertID).
			First(&alert).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		if err != nil {
			return fmt.Errorf("error finding alert: %w", err)
		}
		if !alert.Open() {
			return ErrAlertAlreadyDismissed
		}

		now := time.Now().UTC()
		alert.DismissedAt = &now
		alert.DismissedBy = &userID
		alert.DismissReason = reason
		if err := tx.Save(&alert).Error; err != nil {
			return fmt.Errorf("error dismissing alert: %w", err)
		}
		return nil
	})
}

// aggregated is the scored view of the match rows
type aggregated struct {
	artifactIDs   []uuid.UUID
	totalMatches  int
	institutions  int
	reasons       models.MatchReasonMap
	earliestMatch time.Time
	latestMatch   time.Time
}

func aggregate(rows []matchRow) aggregated {
	type artifactInfo struct {
		tenantID   uuid.UUID
		occurredAt time.Time
	}

	artifacts := make(map[uuid.UUID]artifactInfo)
	tenants := make(map[uuid.UUID]bool)
	perType := make(map[string]map[uuid.UUID]bool)
	months := make(map[string][]string)
	fraudTypes := make(map[string]map[models.FraudType]bool)
	channels := make(map[string]map[models.FraudChannel]bool)

	for _, row := range rows {
		artifacts[row.ArtifactID] = artifactInfo{tenantID: row.TenantID, occurredAt: row.OccurredAt}
		tenants[row.TenantID] = true

		if perType[row.IndicatorType] == nil {
			perType[row.IndicatorType] = make(map[uuid.UUID]bool)
			fraudTypes[row.IndicatorType] = make(map[models.FraudType]bool)
			channels[row.IndicatorType] = make(map[models.FraudChannel]bool)
		}
		if perType[row.IndicatorType][row.ArtifactID] {
			continue // same artifact seen under another pepper version
		}
		perType[row.IndicatorType][row.ArtifactID] = true
		months[row.IndicatorType] = append(months[row.IndicatorType], row.OccurredMonth)
		fraudTypes[row.IndicatorType][row.FraudType] = true
		channels[row.IndicatorType][row.Channel] = true
	}

	agg := aggregated{
		totalMatches: len(artifacts),
		institutions: len(tenants),
		reasons:      make(models.MatchReasonMap, len(perType)),
	}

	for id, info := range artifacts {
		agg.artifactIDs = append(agg.artifactIDs, id)
		if agg.earliestMatch.IsZero() || info.occurredAt.Before(agg.earliestMatch) {
			agg.earliestMatch = info.occurredAt
		}
		if info.occurredAt.After(agg.latestMatch) {
			agg.latestMatch = info.occurredAt
		}
	}

	for indicatorType, ids := range perType {
		monthList := months[indicatorType]
		sort.Strings(monthList)

		reason := models.MatchReason{
			Count:          len(ids),
			FirstSeenMonth: monthList[0],
			LastSeenMonth:  monthList[len(monthList)-1],
		}
		for ft := range fraudTypes[indicatorType] {
			reason.FraudTypes = append(reason.FraudTypes, ft)
		}
		for ch := range channels[indicatorType] {
			reason.Channels = append(reason.Channels, ch)
		}
		sort.Slice(reason.FraudTypes, func(i, j int) bool { return reason.FraudTypes[i] < reason.FraudTypes[j] })
		sort.Slice(reason.Channels, func(i, j int) bool { return reason.Channels[i] < reason.Channels[j] })

		agg.reasons[indicatorType] = reason
	}

	return agg
}

// severityFor applies the fixed severity policy:
// HIGH for two or more indicator types or three or more artifacts,
// MEDIUM for exactly two artifacts on one type, LOW for a single artifact.
func severityFor(totalMatches, distinctTypes int) models.AlertSeverity {
	switch {
	case distinctTypes >= 2 || totalMatches >= 3:
		return models.AlertSeverityHigh
	case totalMatches == 2:
		return models.AlertSeverityMedium
	default:
		return models.AlertSeverityLow
	}
}

// upsertAlert updates the open alert for (tenant, check item) in place, or
// creates one. The read-then-write is serialized per row so concurrent
// rechecks of the same item cannot lose updates.
func (s *Service) upsertAlert(scope database.TenantScope, checkItemID uuid.UUID, agg aggregated, severity models.AlertSeverity) (*models.NetworkMatchAlert, error) {
	var alert models.NetworkMatchAlert
	err := scope.Transaction(func(tx database.TenantScope) error {
		now := time.Now().UTC()
		earliest, latest := agg.earliestMatch, agg.latestMatch

		err := tx.Locked(&models.NetworkMatchAlert{}).
			Where("check_item_id = ? AND dismissed_at IS NULL", checkItemID).
			First(&alert).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			alert = models.NetworkMatchAlert{
				TenantID:             scope.TenantID(),
				CheckItemID:          checkItemID,
				MatchedArtifactIDs:   agg.artifactIDs,
				MatchReasons:         agg.reasons,
				Severity:             severity,
				TotalMatches:         agg.totalMatches,
				DistinctInstitutions: agg.institutions,
				EarliestMatch:        &earliest,
				LatestMatch:          &latest,
				LastCheckedAt:        now,
			}
			return tx.Create(&alert).Error
		}
		if err != nil {
			return err
		}

		alert.MatchedArtifactIDs = agg.artifactIDs
		alert.MatchReasons = agg.reasons
		alert.Severity = severity
		alert.TotalMatches = agg.totalMatches
		alert.DistinctInstitutions = agg.institutions
		alert.EarliestMatch = &earliest
		alert.LatestMatch = &latest
		alert.LastCheckedAt = now
		return tx.Save(&alert).Error
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}
