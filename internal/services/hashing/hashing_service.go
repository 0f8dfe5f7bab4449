package hashing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	"github.com/checknet/backend/internal/models"
)

// Indicator names emitted by GenerateIndicators
const (
	IndicatorRoutingNumber    = "routing_number"
	IndicatorPayeeName        = "payee_name"
	IndicatorCheckFingerprint = "check_fingerprint"
	IndicatorAccountNumber    = "account_number"
)

// Service turns identifying check fields into re-identification-resistant
// indicator hashes. Hashing is pure and deterministic for a given pepper;
// the only shared state is the read-mostly keyring, replaced with a single
// atomic swap on rotation.
type Service struct {
	state atomic.Value // *ringState
}

// NewService creates a hashing service from a validated keyring
func NewService(ring Keyring) (*Service, error) {
	state, err := newRingState(ring)
	if err != nil {
		return nil, err
	}
	s := &Service{}
	s.state.Store(state)
	return s, nil
}

// CheckFields carries the raw identifying fields of a check or fraud event.
// Normalization happens inside the service; malformed fields simply produce
// no indicator of that type.
type CheckFields struct {
	RoutingNumber string
	PayeeName     string
	CheckNumber   string
	Amount        float64
	Date          time.Time
	AccountNumber string
}

// CurrentVersion returns the pepper version used for writes
func (s *Service) CurrentVersion() int {
	return s.ring().ring.Current.Version
}

// ActiveVersions returns every pepper version still valid for matching,
// current first.
func (s *Service) ActiveVersions() []int {
	st := s.ring()
	versions := []int{st.ring.Current.Version}
	if st.ring.Prior != nil {
		versions = append(versions, st.ring.Prior.Version)
	}
	return versions
}

// Rotate installs a new current pepper, demoting the old current to prior.
// The swap is atomic: every hash call sees either the old pair or the new
// pair, never a mix.
func (s *Service) Rotate(next Pepper) error {
	old := s.ring().ring
	prior := old.Current
	state, err := newRingState(Keyring{Current: next, Prior: &prior})
	if err != nil {
		return err
	}
	s.state.Store(state)
	return nil
}

// Swap replaces the whole keyring at once, for startup reloads
func (s *Service) Swap(ring Keyring) error {
	state, err := newRingState(ring)
	if err != nil {
		return err
	}
	s.state.Store(state)
	return nil
}

// GenerateIndicators produces the indicator map for the current pepper
// version. The account indicator is emitted only when includeAccount is set;
// tenants must opt in to account-level sharing. Malformed fields are
// omitted rather than failing the whole map.
func (s *Service) GenerateIndicators(fields CheckFields, includeAccount bool) map[string]string {
	st := s.ring()
	return s.indicatorsForKey(st.keys[st.ring.Current.Version], fields, includeAccount)
}

// GenerateIndicatorsForMatching produces a full indicator map per active
// pepper version, keyed by version, so a fresh hash can be compared against
// artifacts written under any still-valid pepper.
func (s *Service) GenerateIndicatorsForMatching(fields CheckFields, includeAccount bool) map[int]map[string]string {
	st := s.ring()
	out := make(map[int]map[string]string, len(st.keys))
	for version, key := range st.keys {
		out[version] = s.indicatorsForKey(key, fields, includeAccount)
	}
	return out
}

// AmountBucketFor exposes the shared amount banding
func (s *Service) AmountBucketFor(amount float64) models.AmountBucket {
	return models.AmountBucketFor(amount)
}

func (s *Service) indicatorsForKey(key []byte, fields CheckFields, includeAccount bool) map[string]string {
	indicators := make(map[string]string, 4)

	routing, routingOK := NormalizeRoutingNumber(fields.RoutingNumber)
	if routingOK {
		indicators[IndicatorRoutingNumber] = keyedHash(key, IndicatorRoutingNumber, routing)
	}

	if payee, ok := NormalizePayeeName(fields.PayeeName); ok {
		indicators[IndicatorPayeeName] = keyedHash(key, IndicatorPayeeName, payee)
	}

	checkNumber := strings.TrimSpace(fields.CheckNumber)
	if routingOK && checkNumber != "" {
		fingerprint := strings.Join([]string{
			routing,
			checkNumber,
			string(models.AmountBucketFor(fields.Amount)),
			MonthBucket(fields.Date),
		}, "|")
		indicators[IndicatorCheckFingerprint] = keyedHash(key, IndicatorCheckFingerprint, fingerprint)
	}

	if includeAccount {
		if account, ok := NormalizeAccountNumber(fields.AccountNumber); ok {
			indicators[IndicatorAccountNumber] = keyedHash(key, IndicatorAccountNumber, account)
		}
	}

	return indicators
}

func (s *Service) ring() *ringState {
	return s.state.Load().(*ringState)
}

// keyedHash is HMAC-SHA256 over the domain-separated normalized value,
// hex encoded. The indicator name is folded in so a routing hash can never
// collide with an account hash of the same digits.
func keyedHash(key []byte, indicator, normalized string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(indicator))
	mac.Write([]byte{':'})
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}
