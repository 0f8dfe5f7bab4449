package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FraudSharedArtifact is the privacy-preserving record derived from a
// submitted fraud event. It carries only hashed indicators and coarse
// buckets; plaintext identifying fields are never stored here. Rows are
// write-once except for the IsActive flag, which withdrawal flips off.
//
// FraudEventID is nullable: artifacts may also be seeded from external
// intelligence feeds with no originating event.
type FraudSharedArtifact struct {
	Base
	TenantID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"tenant_id"`
	FraudEventID *uuid.UUID `gorm:"type:uuid;index" json:"fraud_event_id,omitempty"`

	SharingLevel SharingLevel `gorm:"type:varchar(16);not null;index" json:"sharing_level"`

	OccurredAt    time.Time `gorm:"not null" json:"occurred_at"`
	OccurredMonth string    `gorm:"type:varchar(7);index;not null" json:"occurred_month"`

	FraudType    FraudType    `gorm:"type:varchar(32);not null" json:"fraud_type"`
	Channel      FraudChannel `gorm:"type:varchar(32);not null" json:"channel"`
	AmountBucket AmountBucket `gorm:"type:varchar(16);not null" json:"amount_bucket"`

	IsActive bool `gorm:"not null;default:true;index" json:"is_active"`

	// Hashed indicator rows, present only at network_match level. Never
	// serialized on any external response.
	Indicators []ArtifactIndicator `gorm:"foreignKey:ArtifactID" json:"-"`
}

// ArtifactIndicator is one hashed matching key for an artifact, stored as a
// normalized row so lookups hit an index instead of scanning JSON blobs.
type ArtifactIndicator struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"-"`
	ArtifactID    uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	TenantID      uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	IndicatorType string    `gorm:"type:varchar(32);not null" json:"-"`
	IndicatorHash string    `gorm:"type:varchar(64);not null;index:idx_indicator_hash" json:"-"`
	PepperVersion int       `gorm:"not null" json:"-"`
	CreatedAt     time.Time `json:"-"`
}

// BeforeCreate assigns the row ID
func (i *ArtifactIndicator) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
