package hashing

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/checknet/backend/internal/database"
	"github.com/checknet/backend/internal/models"
)

// KeyringStore persists the pepper keyring. The database rows are
// authoritative; config values only seed an empty table on first boot.
type KeyringStore struct {
	db      *gorm.DB
	overlap time.Duration
}

// NewKeyringStore creates a keyring store with the given rotation overlap
// window (how long a demoted pepper stays valid for matching).
func NewKeyringStore(db *gorm.DB, overlapDays int) *KeyringStore {
	return &KeyringStore{db: db, overlap: time.Duration(overlapDays) * 24 * time.Hour}
}

// Load reads the persisted keyring: the current pepper plus the most recent
// prior version still inside its overlap window. ErrNoPepper if no current
// row exists.
func (s *KeyringStore) Load(now time.Time) (Keyring, error) {
	var current models.PepperKey
	err := s.db.Where("is_current = ?", true).First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Keyring{}, ErrNoPepper
	}
	if err != nil {
		return Keyring{}, fmt.Errorf("loading current pepper: %w", err)
	}

	ring := Keyring{Current: Pepper{Version: current.Version, Secret: current.Secret}}

	var prior models.PepperKey
	err = s.db.
		Where("is_current = ? AND (valid_until IS NULL OR valid_until > ?)", false, now).
		Order("version DESC").
		First(&prior).Error
	if err == nil {
		ring.Prior = &Pepper{Version: prior.Version, Secret: prior.Secret}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Keyring{}, fmt.Errorf("loading prior pepper: %w", err)
	}

	return ring, nil
}

// Seed creates keyring rows from configuration if the table is empty.
// A deployment with no pepper at all is a fatal configuration error.
func (s *KeyringStore) Seed(current Pepper, prior *Pepper, now time.Time) error {
	if current.Secret == "" || current.Version <= 0 {
		return ErrNoPepper
	}

	var count int64
	if err := s.db.Model(&models.PepperKey{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting pepper keys: %w", err)
	}
	if count > 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if prior != nil && prior.Secret != "" {
			until := now.Add(s.overlap)
			if err := tx.Create(&models.PepperKey{
				Version:    prior.Version,
				Secret:     prior.Secret,
				IsCurrent:  false,
				ValidFrom:  now.Add(-s.overlap),
				ValidUntil: &until,
			}).Error; err != nil {
				return fmt.Errorf("seeding prior pepper: %w", err)
			}
		}
		if err := tx.Create(&models.PepperKey{
			Version:   current.Version,
			Secret:    current.Secret,
			IsCurrent: true,
			ValidFrom: now,
		}).Error; err != nil {
			return fmt.Errorf("seeding current pepper: %w", err)
		}
		return nil
	})
}

// Rotate demotes the current pepper and installs a new current version in a
// single transaction, then returns the new keyring for the in-memory swap.
func (s *KeyringStore) Rotate(newSecret string, now time.Time) (Keyring, error) {
	if newSecret == "" {
		return Keyring{}, ErrNoPepper
	}

	var ring Keyring
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.PepperKey
		if err := database.LockForUpdate(tx).
			Where("is_current = ?", true).
			First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoPepper
			}
			return fmt.Errorf("loading current pepper: %w", err)
		}

		until := now.Add(s.overlap)
		if err := tx.Model(&models.PepperKey{}).
			Where("id = ?", current.ID).
			Updates(map[string]interface{}{"is_current": false, "valid_until": until}).Error; err != nil {
			return fmt.Errorf("demoting pepper v%d: %w", current.Version, err)
		}

		next := models.PepperKey{
			Version:   current.Version + 1,
			Secret:    newSecret,
			IsCurrent: true,
			ValidFrom: now,
		}
		if err := tx.Create(&next).Error; err != nil {
			return fmt.Errorf("creating pepper v%d: %w", next.Version, err)
		}

		ring = Keyring{
			Current: Pepper{Version: next.Version, Secret: next.Secret},
			Prior:   &Pepper{Version: current.Version, Secret: current.Secret},
		}
		return nil
	})
	if err != nil {
		return Keyring{}, err
	}
	return ring, nil
}
