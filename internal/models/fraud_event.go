package models

import (
	"time"

	"github.com/google/uuid"
)

// FraudEvent is a tenant-private record of a confirmed or suspected check
// fraud incident. Identifying fields stay on this row and never leave the
// owning tenant; anything shared with the network is derived into a
// FraudSharedArtifact at submission time.
//
// Events are mutable only while status is draft.
type FraudEvent struct {
	Base
	TenantID uuid.UUID `gorm:"type:uuid;index;not null" json:"tenant_id"`

	FraudType  FraudType       `gorm:"type:varchar(32);not null" json:"fraud_type"`
	Channel    FraudChannel    `gorm:"type:varchar(32);not null" json:"channel"`
	Confidence ConfidenceLevel `gorm:"type:varchar(16);not null" json:"confidence"`

	Amount    float64   `gorm:"type:decimal(20,2);not null" json:"amount"`
	EventDate time.Time `gorm:"not null" json:"event_date"`

	// Identifying fields used for indicator derivation. Tenant-private.
	RoutingNumber string `gorm:"type:varchar(32)" json:"routing_number"`
	PayeeName     string `gorm:"type:varchar(255)" json:"payee_name"`
	CheckNumber   string `gorm:"type:varchar(32)" json:"check_number"`
	AccountNumber string `gorm:"type:varchar(64)" json:"account_number"`

	PrivateNarrative   string `gorm:"type:text" json:"private_narrative"`
	ShareableNarrative string `gorm:"type:text" json:"shareable_narrative"`

	// SharingLevel is the per-event override; empty means the tenant default
	// applies. The effective level is stamped at submission.
	SharingLevel SharingLevel `gorm:"type:varchar(16)" json:"sharing_level,omitempty"`
	AmountBucket AmountBucket `gorm:"type:varchar(16)" json:"amount_bucket,omitempty"`

	Status EventStatus `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`

	CreatedBy        uuid.UUID  `gorm:"type:uuid" json:"created_by"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	SubmittedBy      *uuid.UUID `gorm:"type:uuid" json:"submitted_by,omitempty"`
	WithdrawnAt      *time.Time `json:"withdrawn_at,omitempty"`
	WithdrawnBy      *uuid.UUID `gorm:"type:uuid" json:"withdrawn_by,omitempty"`
	WithdrawalReason string     `gorm:"type:text" json:"withdrawal_reason,omitempty"`
}

// IsDraft reports whether the event is still mutable
func (e *FraudEvent) IsDraft() bool {
	return e.Status == EventStatusDraft
}
