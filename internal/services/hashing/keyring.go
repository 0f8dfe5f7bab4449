package hashing

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrNoPepper is returned when the service is constructed without a usable
// current pepper. Hashing must never silently degrade to an unkeyed hash.
var ErrNoPepper = errors.New("no hashing pepper configured")

// Pepper is one version of the indicator hashing secret
type Pepper struct {
	Version int
	Secret  string
}

// Keyring holds the current pepper and, during a rotation overlap window,
// the prior one. Artifact writes always use Current; matching reads consider
// every version present.
type Keyring struct {
	Current Pepper
	Prior   *Pepper
}

// Validate checks the keyring is internally consistent
func (k Keyring) Validate() error {
	if k.Current.Secret == "" || k.Current.Version <= 0 {
		return ErrNoPepper
	}
	if k.Prior != nil {
		if k.Prior.Secret == "" || k.Prior.Version <= 0 {
			return fmt.Errorf("prior pepper v%d is malformed", k.Prior.Version)
		}
		if k.Prior.Version == k.Current.Version {
			return fmt.Errorf("prior and current pepper share version %d", k.Current.Version)
		}
	}
	return nil
}

// ringState is the immutable value swapped atomically on rotation: the
// keyring plus the HMAC key derived for each version.
type ringState struct {
	ring Keyring
	keys map[int][]byte
}

func newRingState(ring Keyring) (*ringState, error) {
	if err := ring.Validate(); err != nil {
		return nil, err
	}

	state := &ringState{ring: ring, keys: make(map[int][]byte, 2)}

	key, err := deriveKey(ring.Current)
	if err != nil {
		return nil, err
	}
	state.keys[ring.Current.Version] = key

	if ring.Prior != nil {
		key, err := deriveKey(*ring.Prior)
		if err != nil {
			return nil, err
		}
		state.keys[ring.Prior.Version] = key
	}

	return state, nil
}

// deriveKey expands a pepper secret into a fixed 32-byte HMAC key bound to
// its version, so two versions with an identical secret still hash apart.
func deriveKey(p Pepper) ([]byte, error) {
	info := fmt.Sprintf("checknet-indicator-pepper-v%d", p.Version)
	r := hkdf.New(sha256.New, []byte(p.Secret), nil, []byte(info))

	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving pepper key v%d: %w", p.Version, err)
	}
	return key, nil
}
