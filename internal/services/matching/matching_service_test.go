package matching

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/checknet/backend/internal/database"
	"github.com/checknet/backend/internal/models"
	"github.com/checknet/backend/internal/services/artifact"
	"github.com/checknet/backend/internal/services/fraudevent"
	"github.com/checknet/backend/internal/services/hashing"
	"github.com/checknet/backend/internal/services/pii"
	"github.com/checknet/backend/internal/services/tenantcfg"
)

type testEnv struct {
	db      *gorm.DB
	hasher  *hashing.Service
	configs *tenantcfg.Service
	events  *fraudevent.Service
	matcher *Service
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.FraudEvent{},
		&models.FraudSharedArtifact{},
		&models.ArtifactIndicator{},
		&models.NetworkMatchAlert{},
		&models.TenantFraudConfig{},
		&models.PepperKey{},
	))

	hasher, err := hashing.NewService(hashing.Keyring{Current: hashing.Pepper{Version: 1, Secret: "test-pepper"}})
	require.NoError(t, err)

	configs := tenantcfg.NewService(db, nil, time.Minute)
	return &testEnv{
		db:      db,
		hasher:  hasher,
		configs: configs,
		events:  fraudevent.NewService(pii.NewService(), configs, artifact.NewStore(db, hasher)),
		matcher: NewService(db, hasher, configs),
	}
}

func (e *testEnv) scope(tenantID uuid.UUID) database.TenantScope {
	return database.NewTenantScope(e.db, tenantID)
}

// submitShared records and submits a fraud event at network_match level
func (e *testEnv) submitShared(t *testing.T, tenantID uuid.UUID, input fraudevent.CreateInput) *models.FraudEvent {
	scope := e.scope(tenantID)
	event, err := e.events.Create(scope, uuid.New(), input)
	require.NoError(t, err)

	level := models.SharingLevelNetworkMatch
	submitted, err := e.events.Submit(context.Background(), scope, event.ID, uuid.New(), fraudevent.SubmitOptions{
		SharingLevel: &level,
		ConfirmNoPII: true,
	})
	require.NoError(t, err)
	return submitted
}

func fraudInput() fraudevent.CreateInput {
	return fraudevent.CreateInput{
		FraudType:     models.FraudTypeCounterfeit,
		Channel:       models.FraudChannelTeller,
		Confidence:    models.ConfidenceConfirmed,
		Amount:        2500,
		EventDate:     time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		RoutingNumber: "021000021",
		PayeeName:     "Acme Widgets LLC",
		CheckNumber:   "1045",
	}
}

func matchingItem() CheckItem {
	return CheckItem{
		ID:            uuid.New(),
		RoutingNumber: "021000021",
		PayeeName:     "ACME WIDGETS, LLC",
		CheckNumber:   "1045",
		Amount:        3000, // same bucket as 2500
		PresentedAt:   time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		total, types int
		want         models.AlertSeverity
	}{
		{1, 1, models.AlertSeverityLow},
		{2, 1, models.AlertSeverityMedium},
		{3, 1, models.AlertSeverityHigh},
		{1, 2, models.AlertSeverityHigh},
		{2, 2, models.AlertSeverityHigh},
		{5, 3, models.AlertSeverityHigh},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, severityFor(c.total, c.types), "total=%d types=%d", c.total, c.types)
	}
}

func TestCheckNetworkMatchesFindsCrossTenantMatch(t *testing.T) {
	env := newTestEnv(t)
	reporter, checker := uuid.New(), uuid.New()

	env.submitShared(t, reporter, fraudInput())

	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), matchingItem())
	require.NoError(t, err)
	require.True(t, result.HasAlert)
	require.NotNil(t, result.Alert)

	// Routing, payee, and fingerprint all match the single artifact
	assert.Equal(t, models.AlertSeverityHigh, result.Alert.Severity)
	assert.Equal(t, 1, result.Alert.TotalMatches)
	assert.Equal(t, 1, result.Alert.DistinctInstitutions)
	assert.Contains(t, result.Alert.MatchReasons, hashing.IndicatorRoutingNumber)
	assert.Contains(t, result.Alert.MatchReasons, hashing.IndicatorPayeeName)
	assert.Contains(t, result.Alert.MatchReasons, hashing.IndicatorCheckFingerprint)

	reason := result.Alert.MatchReasons[hashing.IndicatorRoutingNumber]
	assert.Equal(t, 1, reason.Count)
	assert.Equal(t, "2026-05", reason.FirstSeenMonth)
	assert.Contains(t, reason.FraudTypes, models.FraudTypeCounterfeit)
	assert.Contains(t, reason.Channels, models.FraudChannelTeller)
}

func TestCheckNetworkMatchesExcludesOwnTenant(t *testing.T) {
	env := newTestEnv(t)
	reporter := uuid.New()

	env.submitShared(t, reporter, fraudInput())

	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(reporter), matchingItem())
	require.NoError(t, err)
	assert.False(t, result.HasAlert)
}

func TestCheckNetworkMatchesIgnoresAggregateArtifacts(t *testing.T) {
	env := newTestEnv(t)
	reporter, checker := uuid.New(), uuid.New()

	scope := env.scope(reporter)
	event, err := env.events.Create(scope, uuid.New(), fraudInput())
	require.NoError(t, err)
	level := models.SharingLevelAggregate
	_, err = env.events.Submit(context.Background(), scope, event.ID, uuid.New(), fraudevent.SubmitOptions{
		SharingLevel: &level,
		ConfirmNoPII: true,
	})
	require.NoError(t, err)

	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), matchingItem())
	require.NoError(t, err)
	assert.False(t, result.HasAlert)
}

func TestCheckNetworkMatchesAfterWithdrawal(t *testing.T) {
	env := newTestEnv(t)
	reporter, checker := uuid.New(), uuid.New()

	event := env.submitShared(t, reporter, fraudInput())

	_, err := env.events.Withdraw(env.scope(reporter), event.ID, uuid.New(), "filed in error")
	require.NoError(t, err)

	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), matchingItem())
	require.NoError(t, err)
	assert.False(t, result.HasAlert)
}

func TestCheckNetworkMatchesNoIndicators(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(uuid.New()), CheckItem{ID: uuid.New()})
	require.NoError(t, err)
	assert.False(t, result.HasAlert)
}

func TestCheckNetworkMatchesRespectsOptOut(t *testing.T) {
	env := newTestEnv(t)
	reporter, checker := uuid.New(), uuid.New()

	env.submitShared(t, reporter, fraudInput())

	off := false
	_, err := env.configs.Update(context.Background(), checker, tenantcfg.UpdateInput{ReceiveNetworkAlerts: &off})
	require.NoError(t, err)

	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), matchingItem())
	require.NoError(t, err)
	assert.False(t, result.HasAlert)

	// Nothing persisted either: matching was skipped entirely
	var count int64
	require.NoError(t, env.db.Model(&models.NetworkMatchAlert{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckNetworkMatchesBelowMinSeverityPersistsButFilters(t *testing.T) {
	env := newTestEnv(t)
	reporter, checker := uuid.New(), uuid.New()

	// Only the routing number matches, a single artifact: LOW severity
	input := fraudInput()
	input.PayeeName = ""
	input.CheckNumber = ""
	env.submitShared(t, reporter, input)

	high := models.AlertSeverityHigh
	_, err := env.configs.Update(context.Background(), checker, tenantcfg.UpdateInput{MinimumAlertSeverity: &high})
	require.NoError(t, err)

	item := matchingItem()
	item.PayeeName = ""
	item.CheckNumber = ""
	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), item)
	require.NoError(t, err)
	assert.False(t, result.HasAlert)

	// The alert row exists regardless of the response filter
	var alert models.NetworkMatchAlert
	require.NoError(t, env.db.Where("tenant_id = ?", checker).First(&alert).Error)
	assert.Equal(t, models.AlertSeverityLow, alert.Severity)
}

func TestCheckNetworkMatchesUpsertsOpenAlert(t *testing.T) {
	env := newTestEnv(t)
	reporter, checker := uuid.New(), uuid.New()

	env.submitShared(t, reporter, fraudInput())

	item := matchingItem()
	first, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), item)
	require.NoError(t, err)
	require.True(t, first.HasAlert)

	// A second reporter shares the same check; recheck updates in place
	env.submitShared(t, uuid.New(), fraudInput())

	second, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), item)
	require.NoError(t, err)
	require.True(t, second.HasAlert)
	assert.Equal(t, first.Alert.AlertID, second.Alert.AlertID)
	assert.Equal(t, 2, second.Alert.TotalMatches)
	assert.Equal(t, 2, second.Alert.DistinctInstitutions)

	var count int64
	require.NoError(t, env.db.Model(&models.NetworkMatchAlert{}).
		Where("tenant_id = ? AND check_item_id = ?", checker, item.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCheckNetworkMatchesAfterPepperRotation(t *testing.T) {
	env := newTestEnv(t)
	reporter, checker := uuid.New(), uuid.New()

	// Artifact written under pepper v1
	env.submitShared(t, reporter, fraudInput())

	// Rotate: writes move to v2, v1 stays active for matching
	require.NoError(t, env.hasher.Rotate(hashing.Pepper{Version: 2, Secret: "next-pepper"}))

	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), matchingItem())
	require.NoError(t, err)
	assert.True(t, result.HasAlert)
}

func TestAlertResponseOmitsArtifactIDs(t *testing.T) {
	env := newTestEnv(t)
	reporter, checker := uuid.New(), uuid.New()

	env.submitShared(t, reporter, fraudInput())

	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), matchingItem())
	require.NoError(t, err)
	require.True(t, result.HasAlert)

	// The summary type carries no artifact identifiers; the stored row does
	var alert models.NetworkMatchAlert
	require.NoError(t, env.db.Where("id = ?", result.Alert.AlertID).First(&alert).Error)
	assert.NotEmpty(t, alert.MatchedArtifactIDs)
}

func TestListOpenAlertsAndDismiss(t *testing.T) {
	env := newTestEnv(t)
	reporter, checker := uuid.New(), uuid.New()
	user := uuid.New()

	env.submitShared(t, reporter, fraudInput())

	result, err := env.matcher.CheckNetworkMatches(context.Background(), env.scope(checker), matchingItem())
	require.NoError(t, err)
	require.True(t, result.HasAlert)

	alerts, err := env.matcher.ListOpenAlerts(env.scope(checker))
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	// Another tenant sees nothing
	other, err := env.matcher.ListOpenAlerts(env.scope(uuid.New()))
	require.NoError(t, err)
	assert.Empty(t, other)

	err = env.matcher.DismissAlert(env.scope(checker), result.Alert.AlertID, user, "known customer")
	require.NoError(t, err)

	alerts, err = env.matcher.ListOpenAlerts(env.scope(checker))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// Dismissing twice fails
	err = env.matcher.DismissAlert(env.scope(checker), result.Alert.AlertID, user, "again")
	assert.ErrorIs(t, err, ErrAlertAlreadyDismissed)

	// Cross-tenant dismissal is a not-found, not a forbidden leak
	err = env.matcher.DismissAlert(env.scope(uuid.New()), result.Alert.AlertID, user, "")
	assert.ErrorIs(t, err, ErrAlertNotFound)
}
