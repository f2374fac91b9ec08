package wallet

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// Seed sizing and the wallet family prefix.
const (
	// DefaultSeedSize is the raw seed length in bytes (256 bits).
	DefaultSeedSize = 32

	// DefaultSeedPrefix is the hex prefix ChecksumPrefix must start with for
	// a seed to belong to this wallet family.
	DefaultSeedPrefix = "01"
)

// ValidSeedSize reports whether n bytes can be transcribed as a BIP-39
// mnemonic (128 to 256 bits in steps of 32).
func ValidSeedSize(n int) bool {
	return n >= 16 && n <= 32 && n%4 == 0
}

// ValidSeedPrefix reports whether prefix is 1 to 4 hex characters. Longer
// prefixes make Generate impractically slow.
func ValidSeedPrefix(prefix string) bool {
	if len(prefix) == 0 || len(prefix) > 4 {
		return false
	}
	for _, r := range strings.ToLower(prefix) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// Seed is checksum-validated raw entropy. A Seed is immutable; it is only
// built by a SeedCodec, which validates it first.
type Seed struct {
	entropy []byte
}

// Bytes returns a copy of the seed entropy. Callers should zero it after use.
func (s *Seed) Bytes() []byte {
	out := make([]byte, len(s.entropy))
	copy(out, s.entropy)
	return out
}

// Len returns the seed length in bytes.
func (s *Seed) Len() int {
	return len(s.entropy)
}

// IsValid reports whether s holds accepted seed material.
func (s *Seed) IsValid() bool {
	return s != nil && len(s.entropy) > 0
}

// Equal reports whether two seeds hold the same entropy.
func (s *Seed) Equal(other *Seed) bool {
	if s == nil || other == nil {
		return s == other
	}
	return string(s.entropy) == string(other.entropy)
}

// Wipe zeroes the seed entropy. The seed is unusable afterwards.
func (s *Seed) Wipe() {
	if s == nil {
		return
	}
	clear(s.entropy)
	s.entropy = nil
}

// SeedCodec converts between entropy, the checksum and mnemonics for a wallet
// family. The zero value is not usable; build one with NewSeedCodec.
type SeedCodec struct {
	size   int
	prefix string
	rand   io.Reader
}

// NewSeedCodec returns a codec for seeds of size bytes whose checksum starts
// with prefix. A nil random source selects crypto/rand.
func NewSeedCodec(size int, prefix string, random io.Reader) (*SeedCodec, error) {
	if !ValidSeedSize(size) {
		return nil, fmt.Errorf("seed size %d: must be 16..32 bytes in steps of 4", size)
	}
	prefix = strings.ToLower(prefix)
	if !ValidSeedPrefix(prefix) {
		return nil, fmt.Errorf("seed prefix %q: must be 1..4 hex characters", prefix)
	}
	if random == nil {
		random = rand.Reader
	}
	return &SeedCodec{size: size, prefix: prefix, rand: random}, nil
}

// DefaultSeedCodec returns a codec with the default size and prefix.
func DefaultSeedCodec() *SeedCodec {
	return &SeedCodec{size: DefaultSeedSize, prefix: DefaultSeedPrefix, rand: rand.Reader}
}

// Size returns the seed length in bytes.
func (c *SeedCodec) Size() int { return c.size }

// Prefix returns the wallet family prefix.
func (c *SeedCodec) Prefix() string { return c.prefix }

// Valid reports whether b has the right length and checksum prefix.
func (c *SeedCodec) Valid(b []byte) bool {
	return len(b) == c.size && hasChecksumPrefix(b, c.prefix)
}

// Generate draws random entropy and increments it, as a big-endian integer,
// until its checksum carries the family prefix. The expected number of
// iterations is 16^len(prefix); there is no upper bound and no way to cancel.
// On overflow the integer wraps to zero.
func (c *SeedCodec) Generate() (*Seed, error) {
	buf := make([]byte, c.size)
	if _, err := io.ReadFull(c.rand, buf); err != nil {
		return nil, fmt.Errorf("read seed entropy: %w", err)
	}
	return c.search(buf), nil
}

// search runs the acceptance loop starting at start. start is zeroed.
func (c *SeedCodec) search(start []byte) *Seed {
	n := new(big.Int).SetBytes(start)
	defer zeroBig(n)
	clear(start)

	limit := new(big.Int).Lsh(big.NewInt(1), uint(c.size*8))
	one := big.NewInt(1)

	buf := make([]byte, c.size)
	for {
		n.FillBytes(buf)
		if hasChecksumPrefix(buf, c.prefix) {
			return &Seed{entropy: buf}
		}
		n.Add(n, one)
		if n.Cmp(limit) >= 0 {
			n.SetInt64(0)
		}
	}
}

// FromEntropy accepts caller-supplied seed bytes. The input is copied.
func (c *SeedCodec) FromEntropy(b []byte) (*Seed, error) {
	if len(b) != c.size {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidSeed, len(b), c.size)
	}
	if !hasChecksumPrefix(b, c.prefix) {
		return nil, fmt.Errorf("%w: checksum prefix mismatch", ErrInvalidSeed)
	}
	entropy := make([]byte, len(b))
	copy(entropy, b)
	return &Seed{entropy: entropy}, nil
}
