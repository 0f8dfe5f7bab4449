package models

import "time"

// PepperKey is one version of the indicator hashing pepper. At most one row
// is current at any time; prior versions stay valid for matching until
// ValidUntil passes, then are retired. Secrets never serialize.
type PepperKey struct {
	Base
	Version    int        `gorm:"uniqueIndex;not null" json:"version"`
	Secret     string     `gorm:"type:varchar(255);not null" json:"-"`
	IsCurrent  bool       `gorm:"not null;default:false" json:"is_current"`
	ValidFrom  time.Time  `gorm:"not null" json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// ActiveForMatching reports whether hashes written under this version must
// still be considered when matching.
func (k *PepperKey) ActiveForMatching(now time.Time) bool {
	if k.IsCurrent {
		return true
	}
	return k.ValidUntil == nil || k.ValidUntil.After(now)
}
