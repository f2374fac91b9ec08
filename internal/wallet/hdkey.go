package wallet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-hd/pkg/crypto"
	"github.com/tyler-smith/go-bip32"
)

// BIP-32 / BIP-44 constants.
const (
	// HardenedOffset is added to an index to request hardened derivation.
	HardenedOffset = bip32.FirstHardenedChild

	// ChangeExternal is the chain for receiving addresses.
	ChangeExternal = 0

	// ChangeInternal is the chain for change addresses.
	ChangeInternal = 1

	// Master key seeds accepted by BIP-32.
	minMasterSeed = 16
	maxMasterSeed = 64
)

// HDKey is a BIP-32 extended key, private or public.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key directly from raw seed bytes.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) < minMasterSeed || len(seed) > maxMasterSeed {
		return nil, fmt.Errorf("%w: master seed must be %d..%d bytes, got %d",
			ErrInvalidSeed, minMasterSeed, maxMasterSeed, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w: %w", ErrDerivationFailed, err)
	}
	return &HDKey{key: master}, nil
}

// ParseExtendedKey decodes a base58 xprv/xpub string. Public keys must be
// valid curve points.
func ParseExtendedKey(s string) (*HDKey, error) {
	k, err := bip32.B58Deserialize(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if !k.IsPrivate {
		if _, err := crypto.ParsePublicKey(k.Key); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
	}
	return &HDKey{key: k}, nil
}

// DeriveChild derives a child key at the given index.
// For hardened derivation, add HardenedOffset to the index.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if errors.Is(err, bip32.ErrHardnedChildPublicKey) {
		return nil, fmt.Errorf("derive child %d: %w", index, ErrHardenedOnPublic)
	}
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w: %w", index, ErrDerivationFailed, err)
	}
	return &HDKey{key: child}, nil
}

// Neuter returns the public-key-only form of k. A public key is returned as
// a copy of itself.
func (k *HDKey) Neuter() *HDKey {
	return (&HDKey{key: k.key.PublicKey()}).Clone()
}

// IsPrivate returns true if this key contains a private key.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// ChildIndex returns the index this key was derived at, including the
// hardened offset.
func (k *HDKey) ChildIndex() uint32 {
	return binary.BigEndian.Uint32(k.key.ChildNumber)
}

// ParentFingerprint returns the fingerprint of the parent key (0 for master).
func (k *HDKey) ParentFingerprint() uint32 {
	return binary.BigEndian.Uint32(k.key.FingerPrint)
}

// ChainCode returns a copy of the 32-byte chain code.
func (k *HDKey) ChainCode() []byte {
	return bytes.Clone(k.key.ChainCode)
}

// PrivateKeyBytes returns a copy of the raw 32-byte private key.
// Returns nil if this is a public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	raw := k.key.Key
	switch {
	case len(raw) == 33 && raw[0] == 0:
		return bytes.Clone(raw[1:])
	case len(raw) < 32:
		out := make([]byte, 32)
		copy(out[32-len(raw):], raw)
		return out
	}
	return bytes.Clone(raw)
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	if !k.key.IsPrivate {
		return bytes.Clone(k.key.Key)
	}
	return k.key.PublicKey().Key
}

// ID returns a short identifier of the public key, safe to log.
func (k *HDKey) ID() string {
	return crypto.KeyID(k.PublicKeyBytes())
}

// String returns the base58 xprv/xpub serialization.
func (k *HDKey) String() string {
	return k.key.B58Serialize()
}

// Equal reports whether two keys serialize identically.
func (k *HDKey) Equal(other *HDKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	a, errA := k.key.Serialize()
	b, errB := other.key.Serialize()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// Clone returns a deep copy of k.
func (k *HDKey) Clone() *HDKey {
	return &HDKey{key: &bip32.Key{
		Version:     bytes.Clone(k.key.Version),
		Depth:       k.key.Depth,
		ChildNumber: bytes.Clone(k.key.ChildNumber),
		FingerPrint: bytes.Clone(k.key.FingerPrint),
		ChainCode:   bytes.Clone(k.key.ChainCode),
		Key:         bytes.Clone(k.key.Key),
		IsPrivate:   k.key.IsPrivate,
	}}
}

// Zero wipes the key material. The key is unusable afterwards.
func (k *HDKey) Zero() {
	if k == nil || k.key == nil {
		return
	}
	clear(k.key.Key)
	clear(k.key.ChainCode)
}
