// Package wallet implements HD seed, derivation path and account key
// management.
package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// ToMnemonic encodes the seed entropy as a BIP-39 mnemonic.
func (c *SeedCodec) ToMnemonic(s *Seed) (string, error) {
	if !s.IsValid() {
		return "", fmt.Errorf("%w: empty seed", ErrInvalidSeed)
	}
	words, err := bip39.NewMnemonic(s.entropy)
	if err != nil {
		return "", fmt.Errorf("encode mnemonic: %w", err)
	}
	return words, nil
}

// FromMnemonic decodes a mnemonic back into a seed. The decoded entropy must
// have the codec's seed size and pass the family checksum. Every failure is
// reported as ErrInvalidMnemonic.
func (c *SeedCodec) FromMnemonic(words string) (*Seed, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(words)), " ")

	entropy, err := bip39.EntropyFromMnemonic(normalized)
	if err != nil || len(entropy) != c.size || !hasChecksumPrefix(entropy, c.prefix) {
		clear(entropy)
		return nil, ErrInvalidMnemonic
	}
	return &Seed{entropy: entropy}, nil
}

// ValidateMnemonic reports whether words decode to a seed of this family.
func (c *SeedCodec) ValidateMnemonic(words string) bool {
	s, err := c.FromMnemonic(words)
	if err != nil {
		return false
	}
	s.Wipe()
	return true
}
