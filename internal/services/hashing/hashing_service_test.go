package hashing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	svc, err := NewService(Keyring{Current: Pepper{Version: 1, Secret: "test-pepper-secret"}})
	require.NoError(t, err)
	return svc
}

func sampleFields() CheckFields {
	return CheckFields{
		RoutingNumber: "021000021",
		PayeeName:     "Acme Widgets LLC",
		CheckNumber:   "1045",
		Amount:        2500,
		Date:          time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		AccountNumber: "000123456789",
	}
}

func TestNewServiceRequiresPepper(t *testing.T) {
	_, err := NewService(Keyring{})
	assert.ErrorIs(t, err, ErrNoPepper)

	_, err = NewService(Keyring{Current: Pepper{Version: 0, Secret: "secret"}})
	assert.ErrorIs(t, err, ErrNoPepper)
}

func TestGenerateIndicatorsDeterministic(t *testing.T) {
	svc := newTestService(t)

	a := svc.GenerateIndicators(sampleFields(), true)
	b := svc.GenerateIndicators(sampleFields(), true)
	assert.Equal(t, a, b)

	require.Len(t, a, 4)
	for name, hash := range a {
		assert.Len(t, hash, 64, "indicator %s must be hex SHA-256", name)
	}
}

func TestGenerateIndicatorsNormalizesBeforeHashing(t *testing.T) {
	svc := newTestService(t)

	fields := sampleFields()
	fields.PayeeName = "ACME WIDGETS, LLC"
	fields.RoutingNumber = "021-000-021"

	a := svc.GenerateIndicators(sampleFields(), false)
	b := svc.GenerateIndicators(fields, false)
	assert.Equal(t, a[IndicatorPayeeName], b[IndicatorPayeeName])
	assert.Equal(t, a[IndicatorRoutingNumber], b[IndicatorRoutingNumber])
}

func TestGenerateIndicatorsDomainSeparation(t *testing.T) {
	svc := newTestService(t)

	// The same digit string must hash differently per indicator name
	fields := CheckFields{RoutingNumber: "021000021", AccountNumber: "021000021"}
	indicators := svc.GenerateIndicators(fields, true)
	assert.NotEqual(t, indicators[IndicatorRoutingNumber], indicators[IndicatorAccountNumber])
}

func TestGenerateIndicatorsAccountOptIn(t *testing.T) {
	svc := newTestService(t)

	withAccount := svc.GenerateIndicators(sampleFields(), true)
	assert.Contains(t, withAccount, IndicatorAccountNumber)

	without := svc.GenerateIndicators(sampleFields(), false)
	assert.NotContains(t, without, IndicatorAccountNumber)
}

func TestGenerateIndicatorsSkipsMalformedFields(t *testing.T) {
	svc := newTestService(t)

	fields := sampleFields()
	fields.RoutingNumber = "not-a-routing-number"
	indicators := svc.GenerateIndicators(fields, false)

	assert.NotContains(t, indicators, IndicatorRoutingNumber)
	// Fingerprint needs the routing number too
	assert.NotContains(t, indicators, IndicatorCheckFingerprint)
	assert.Contains(t, indicators, IndicatorPayeeName)
}

func TestFingerprintChangesWithAmountBucket(t *testing.T) {
	svc := newTestService(t)

	a := sampleFields()
	b := sampleFields()
	b.Amount = 50 // different bucket

	assert.NotEqual(t,
		svc.GenerateIndicators(a, false)[IndicatorCheckFingerprint],
		svc.GenerateIndicators(b, false)[IndicatorCheckFingerprint])

	// Same bucket, different exact amount: identical fingerprint
	c := sampleFields()
	c.Amount = 3000
	assert.Equal(t,
		svc.GenerateIndicators(a, false)[IndicatorCheckFingerprint],
		svc.GenerateIndicators(c, false)[IndicatorCheckFingerprint])
}

func TestDifferentPeppersProduceDifferentHashes(t *testing.T) {
	svcA, err := NewService(Keyring{Current: Pepper{Version: 1, Secret: "pepper-a"}})
	require.NoError(t, err)
	svcB, err := NewService(Keyring{Current: Pepper{Version: 1, Secret: "pepper-b"}})
	require.NoError(t, err)

	a := svcA.GenerateIndicators(sampleFields(), false)
	b := svcB.GenerateIndicators(sampleFields(), false)
	assert.NotEqual(t, a[IndicatorRoutingNumber], b[IndicatorRoutingNumber])
}

func TestRotateKeepsPriorForMatching(t *testing.T) {
	svc := newTestService(t)
	oldHashes := svc.GenerateIndicators(sampleFields(), false)

	require.NoError(t, svc.Rotate(Pepper{Version: 2, Secret: "next-pepper"}))
	assert.Equal(t, 2, svc.CurrentVersion())
	assert.Equal(t, []int{2, 1}, svc.ActiveVersions())

	// New writes use the new pepper
	newHashes := svc.GenerateIndicators(sampleFields(), false)
	assert.NotEqual(t, oldHashes[IndicatorRoutingNumber], newHashes[IndicatorRoutingNumber])

	// Matching still reproduces the old pepper's hashes
	matching := svc.GenerateIndicatorsForMatching(sampleFields(), false)
	require.Contains(t, matching, 1)
	require.Contains(t, matching, 2)
	assert.Equal(t, oldHashes[IndicatorRoutingNumber], matching[1][IndicatorRoutingNumber])
	assert.Equal(t, newHashes[IndicatorRoutingNumber], matching[2][IndicatorRoutingNumber])
}

func TestSameSecretDifferentVersionHashesApart(t *testing.T) {
	svcV1, err := NewService(Keyring{Current: Pepper{Version: 1, Secret: "shared"}})
	require.NoError(t, err)
	svcV2, err := NewService(Keyring{Current: Pepper{Version: 2, Secret: "shared"}})
	require.NoError(t, err)

	assert.NotEqual(t,
		svcV1.GenerateIndicators(sampleFields(), false)[IndicatorRoutingNumber],
		svcV2.GenerateIndicators(sampleFields(), false)[IndicatorRoutingNumber])
}

func TestKeyringValidate(t *testing.T) {
	prior := Pepper{Version: 1, Secret: "old"}
	assert.NoError(t, Keyring{Current: Pepper{Version: 2, Secret: "new"}, Prior: &prior}.Validate())

	dup := Pepper{Version: 2, Secret: "old"}
	assert.Error(t, Keyring{Current: Pepper{Version: 2, Secret: "new"}, Prior: &dup}.Validate())
}
