package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCleanText(t *testing.T) {
	svc := NewService()
	report := svc.Analyze("Counterfeit check presented at drive-through window, item returned.", false)

	assert.False(t, report.HasPotentialPII)
	assert.Zero(t, report.MatchCount)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeSSN(t *testing.T) {
	svc := NewService()

	report := svc.Analyze("Payee SSN 219-09-9999 on the back of the item", false)
	require.True(t, report.HasPotentialPII)
	assert.Equal(t, 1, report.HighConfidenceCount)
	assert.Contains(t, report.Categories(), TypeSSN)

	// Structurally impossible SSNs are not flagged
	report = svc.Analyze("code 000-12-3456 and 666-12-3456 and 900-12-3456", false)
	for _, p := range report.DetectedPatterns {
		assert.NotEqual(t, TypeSSN, p.Type)
	}
}

func TestAnalyzeEmail(t *testing.T) {
	svc := NewService()
	report := svc.Analyze("Contact suspect at john.doe@example.com for details", false)

	require.True(t, report.HasPotentialPII)
	assert.Contains(t, report.Categories(), TypeEmail)
}

func TestAnalyzeCreditCardLuhn(t *testing.T) {
	svc := NewService()

	// 4111111111111111 passes Luhn
	report := svc.Analyze("card 4111 1111 1111 1111 used", false)
	assert.Contains(t, report.Categories(), TypeCreditCard)

	// Same shape, fails Luhn
	report = svc.Analyze("ref 4111 1111 1111 1112", false)
	for _, p := range report.DetectedPatterns {
		assert.NotEqual(t, TypeCreditCard, p.Type)
	}
}

func TestAnalyzeRoutingNumberChecksum(t *testing.T) {
	svc := NewService()

	// 021000021 passes the ABA checksum
	report := svc.Analyze("drawn on 021000021", false)
	assert.Contains(t, report.Categories(), TypeRoutingNumber)

	// 123456789 fails it
	report = svc.Analyze("reference 123456789", false)
	for _, p := range report.DetectedPatterns {
		assert.NotEqual(t, TypeRoutingNumber, p.Type)
	}
}

func TestAnalyzeAccountKeyword(t *testing.T) {
	svc := NewService()
	report := svc.Analyze("Funds pulled from account #12345678 same day", false)
	assert.Contains(t, report.Categories(), TypeAccountNumber)
}

func TestAnalyzeStrictMode(t *testing.T) {
	svc := NewService()
	text := "Suspect lives at 123 Main Street near the branch"

	relaxed := svc.Analyze(text, false)
	assert.False(t, relaxed.HasPotentialPII)

	strict := svc.Analyze(text, true)
	require.True(t, strict.HasPotentialPII)
	assert.Contains(t, strict.Categories(), TypeStreetAddress)
}

func TestAnalyzePIIKeywords(t *testing.T) {
	svc := NewService()
	report := svc.Analyze("Asked for the customer's date of birth and driver's license", false)

	require.True(t, report.HasPotentialPII)
	assert.Contains(t, report.Categories(), TypePIIKeyword)
}

func TestAnalyzeWarningsDeduplicated(t *testing.T) {
	svc := NewService()
	report := svc.Analyze("emails a@x.com and b@y.com in the memo line", false)

	assert.Equal(t, 2, report.MatchCount)
	assert.Len(t, report.Warnings, 1)
}

func TestRedact(t *testing.T) {
	svc := NewService()

	redacted := svc.Redact("Payee reachable at jane@example.com, SSN 219-09-9999.")
	assert.NotContains(t, redacted, "jane@example.com")
	assert.NotContains(t, redacted, "219-09-9999")
	assert.Contains(t, redacted, "[REDACTED:email]")
	assert.Contains(t, redacted, "[REDACTED:ssn]")

	// Low-confidence spans are redacted too
	redacted = svc.Redact("Dropped off at 123 Main Street yesterday")
	assert.Contains(t, redacted, "[REDACTED:street_address]")

	clean := "No identifying details in this narrative."
	assert.Equal(t, clean, svc.Redact(clean))
}
