package fraudevent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/checknet/backend/internal/database"
	"github.com/checknet/backend/internal/models"
	"github.com/checknet/backend/internal/services/artifact"
	"github.com/checknet/backend/internal/services/hashing"
	"github.com/checknet/backend/internal/services/pii"
	"github.com/checknet/backend/internal/services/tenantcfg"
)

var (
	// ErrEventNotFound is returned when the event does not exist in the
	// tenant's scope
	ErrEventNotFound = errors.New("fraud event not found")
	// ErrEventNotDraft is returned on any mutation of a non-draft event
	ErrEventNotDraft = errors.New("fraud event is no longer a draft")
	// ErrEventNotSubmitted is returned when withdrawing an event that is
	// not in the submitted state
	ErrEventNotSubmitted = errors.New("fraud event is not submitted")
)

// PIIDetectedError rejects a submission whose shareable narrative appears
// to contain PII. Recoverable: the caller edits the narrative or resubmits
// with confirm_no_pii set.
type PIIDetectedError struct {
	Categories []string
	Warnings   []string
}

func (e *PIIDetectedError) Error() string {
	return fmt.Sprintf(
		"shareable narrative appears to contain PII (%s); edit the narrative or resubmit with confirm_no_pii",
		strings.Join(e.Categories, ", "))
}

// Service owns the fraud event lifecycle: draft, submitted, withdrawn.
// Draft is the only mutable state. Submission runs the PII guard and
// derives the shared artifact in the same transaction.
type Service struct {
	pii       *pii.Service
	configs   *tenantcfg.Service
	artifacts *artifact.Store
}

// NewService creates a fraud event lifecycle service
func NewService(piiSvc *pii.Service, configs *tenantcfg.Service, artifacts *artifact.Store) *Service {
	return &Service{pii: piiSvc, configs: configs, artifacts: artifacts}
}

// CreateInput carries the fields of a new draft event
type CreateInput struct {
	FraudType  models.FraudType       `json:"fraud_type" binding:"required"`
	Channel    models.FraudChannel    `json:"channel" binding:"required"`
	Confidence models.ConfidenceLevel `json:"confidence" binding:"required"`
	Amount     float64                `json:"amount" binding:"required"`
	EventDate  time.Time              `json:"event_date" binding:"required"`

	RoutingNumber string `json:"routing_number"`
	PayeeName     string `json:"payee_name"`
	CheckNumber   string `json:"check_number"`
	AccountNumber string `json:"account_number"`

	PrivateNarrative   string `json:"private_narrative"`
	ShareableNarrative string `json:"shareable_narrative"`

	SharingLevel *models.SharingLevel `json:"sharing_level"`
}

// UpdateInput carries partial updates to a draft event. Nil pointers leave
// the current value untouched.
type UpdateInput struct {
	FraudType  *models.FraudType       `json:"fraud_type"`
	Channel    *models.FraudChannel    `json:"channel"`
	Confidence *models.ConfidenceLevel `json:"confidence"`
	Amount     *float64                `json:"amount"`
	EventDate  *time.Time              `json:"event_date"`

	RoutingNumber *string `json:"routing_number"`
	PayeeName     *string `json:"payee_name"`
	CheckNumber   *string `json:"check_number"`
	AccountNumber *string `json:"account_number"`

	PrivateNarrative   *string `json:"private_narrative"`
	ShareableNarrative *string `json:"shareable_narrative"`

	SharingLevel *models.SharingLevel `json:"sharing_level"`
}

// SubmitOptions control the draft to submitted transition
type SubmitOptions struct {
	SharingLevel *models.SharingLevel `json:"sharing_level"`
	ConfirmNoPII bool                 `json:"confirm_no_pii"`
}

// Create records a new draft fraud event
func (s *Service) Create(scope database.TenantScope, userID uuid.UUID, input CreateInput) (*models.FraudEvent, error) {
	if err := validateIdentifyingFields(input.RoutingNumber, input.AccountNumber); err != nil {
		return nil, err
	}
	if !input.FraudType.Valid() {
		return nil, fmt.Errorf("invalid fraud type: %q", input.FraudType)
	}
	if !input.Channel.Valid() {
		return nil, fmt.Errorf("invalid fraud channel: %q", input.Channel)
	}
	if !input.Confidence.Valid() {
		return nil, fmt.Errorf("invalid confidence level: %q", input.Confidence)
	}
	if input.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}

	event := models.FraudEvent{
		TenantID:           scope.TenantID(),
		FraudType:          input.FraudType,
		Channel:            input.Channel,
		Confidence:         input.Confidence,
		Amount:             input.Amount,
		EventDate:          input.EventDate,
		RoutingNumber:      input.RoutingNumber,
		PayeeName:          input.PayeeName,
		CheckNumber:        input.CheckNumber,
		AccountNumber:      input.AccountNumber,
		PrivateNarrative:   input.PrivateNarrative,
		ShareableNarrative: input.ShareableNarrative,
		Status:             models.EventStatusDraft,
		CreatedBy:          userID,
	}
	if input.SharingLevel != nil {
		event.SharingLevel = *input.SharingLevel
	}

	if err := scope.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("error creating fraud event: %w", err)
	}
	return &event, nil
}

// Get returns one of the tenant's fraud events
func (s *Service) Get(scope database.TenantScope, eventID uuid.UUID) (*models.FraudEvent, error) {
	var event models.FraudEvent
	err := scope.Query(&models.FraudEvent{}).Where("id = ?", eventID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding fraud event: %w", err)
	}
	return &event, nil
}

// List returns the tenant's fraud events, newest first, optionally filtered
// by status.
func (s *Service) List(scope database.TenantScope, status *models.EventStatus, page, pageSize int) ([]models.FraudEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := scope.Query(&models.FraudEvent{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting fraud events: %w", err)
	}

	var events []models.FraudEvent
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error listing fraud events: %w", err)
	}
	return events, total, nil
}

// Update modifies a draft event. Any update to a non-draft event fails with
// ErrEventNotDraft.
func (s *Service) Update(scope database.TenantScope, eventID uuid.UUID, input UpdateInput) (*models.FraudEvent, error) {
	var updated *models.FraudEvent
	err := scope.Transaction(func(tx database.TenantScope) error {
		event, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		if !event.IsDraft() {
			return ErrEventNotDraft
		}

		if input.FraudType != nil {
			if !input.FraudType.Valid() {
				return fmt.Errorf("invalid fraud type: %q", *input.FraudType)
			}
			event.FraudType = *input.FraudType
		}
		if input.Channel != nil {
			if !input.Channel.Valid() {
				return fmt.Errorf("invalid fraud channel: %q", *input.Channel)
			}
			event.Channel = *input.Channel
		}
		if input.Confidence != nil {
			if !input.Confidence.Valid() {
				return fmt.Errorf("invalid confidence level: %q", *input.Confidence)
			}
			event.Confidence = *input.Confidence
		}
		if input.Amount != nil {
			if *input.Amount <= 0 {
				return errors.New("amount must be positive")
			}
			event.Amount = *input.Amount
		}
		if input.EventDate != nil {
			event.EventDate = *input.EventDate
		}
		if input.RoutingNumber != nil {
			event.RoutingNumber = *input.RoutingNumber
		}
		if input.PayeeName != nil {
			event.PayeeName = *input.PayeeName
		}
		if input.CheckNumber != nil {
			event.CheckNumber = *input.CheckNumber
		}
		if input.AccountNumber != nil {
			event.AccountNumber = *input.AccountNumber
		}
		if input.PrivateNarrative != nil {
			event.PrivateNarrative = *input.PrivateNarrative
		}
		if input.ShareableNarrative != nil {
			event.ShareableNarrative = *input.ShareableNarrative
		}
		if input.SharingLevel != nil {
			event.SharingLevel = *input.SharingLevel
		}

		if err := validateIdentifyingFields(event.RoutingNumber, event.AccountNumber); err != nil {
			return err
		}

		return saveEvent(tx, event, &updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Submit transitions a draft to submitted: resolves the effective sharing
// level, runs the PII guard, applies narrative policy, buckets the amount,
// and derives the shared artifact when the level warrants one.
func (s *Service) Submit(ctx context.Context, scope database.TenantScope, eventID, userID uuid.UUID, opts SubmitOptions) (*models.FraudEvent, error) {
	cfg, err := s.configs.GetOrCreate(ctx, scope.TenantID())
	if err != nil {
		return nil, err
	}

	var submitted *models.FraudEvent
	err = scope.Transaction(func(tx database.TenantScope) error {
		event, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		if !event.IsDraft() {
			return ErrEventNotDraft
		}

		level := effectiveSharingLevel(opts.SharingLevel, event.SharingLevel, cfg.DefaultSharingLevel)

		if level != models.SharingLevelPrivate && event.ShareableNarrative != "" {
			report := s.pii.Analyze(event.ShareableNarrative, false)
			if report.HasPotentialPII && !opts.ConfirmNoPII {
				return &PIIDetectedError{Categories: report.Categories(), Warnings: report.Warnings}
			}
		}

		// Tenant policy trumps the per-event choice: no narrative leaves
		// the tenant unless narrative sharing is allowed.
		if !cfg.AllowNarrativeSharing {
			event.ShareableNarrative = ""
		}

		now := time.Now().UTC()
		event.SharingLevel = level
		event.AmountBucket = models.AmountBucketFor(event.Amount)
		event.Status = models.EventStatusSubmitted
		event.SubmittedAt = &now
		event.SubmittedBy = &userID

		if err := saveEvent(tx, event, &submitted); err != nil {
			return err
		}

		if level.Rank() > models.SharingLevelPrivate.Rank() {
			if _, err := s.artifacts.CreateFromEvent(tx, event, cfg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return submitted, nil
}

// Withdraw transitions a submitted event to withdrawn and deactivates its
// shared artifact so it stops matching immediately.
func (s *Service) Withdraw(scope database.TenantScope, eventID, userID uuid.UUID, reason string) (*models.FraudEvent, error) {
	var withdrawn *models.FraudEvent
	err := scope.Transaction(func(tx database.TenantScope) error {
		event, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventStatusSubmitted {
			return ErrEventNotSubmitted
		}

		now := time.Now().UTC()
		event.Status = models.EventStatusWithdrawn
		event.WithdrawnAt = &now
		event.WithdrawnBy = &userID
		event.WithdrawalReason = reason

		if err := saveEvent(tx, event, &withdrawn); err != nil {
			return err
		}

		return s.artifacts.DeactivateForEvent(tx, event.ID)
	})
	if err != nil {
		return nil, err
	}
	return withdrawn, nil
}

func effectiveSharingLevel(override *models.SharingLevel, eventLevel, tenantDefault models.SharingLevel) models.SharingLevel {
	if override != nil && override.Valid() {
		return *override
	}
	if eventLevel.Valid() {
		return eventLevel
	}
	return tenantDefault
}

func validateIdentifyingFields(routing, account string) error {
	if routing != "" {
		if _, ok := hashing.NormalizeRoutingNumber(routing); !ok {
			return fmt.Errorf("invalid routing number: must contain exactly 9 digits")
		}
	}
	if account != "" {
		if _, ok := hashing.NormalizeAccountNumber(account); !ok {
			return fmt.Errorf("invalid account number: must be at least 4 characters")
		}
	}
	return nil
}

func lockEvent(tx database.TenantScope, eventID uuid.UUID) (*models.FraudEvent, error) {
	var event models.FraudEvent
	err := tx.Locked(&models.FraudEvent{}).Where("id = ?", eventID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding fraud event: %w", err)
	}
	return &event, nil
}

func saveEvent(tx database.TenantScope, event *models.FraudEvent, out **models.FraudEvent) error {
	if err := tx.Save(event).Error; err != nil {
		return fmt.Errorf("error saving fraud event: %w", err)
	}
	*out = event
	return nil
}
