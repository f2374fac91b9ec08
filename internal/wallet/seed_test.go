package wallet

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

// zeroCodec returns a default-family codec whose random source yields zeros,
// so Generate always starts the search at 0.
func zeroCodec(t *testing.T, size int) *SeedCodec {
	t.Helper()
	c, err := NewSeedCodec(size, DefaultSeedPrefix, bytes.NewReader(make([]byte, size)))
	if err != nil {
		t.Fatalf("NewSeedCodec() error: %v", err)
	}
	return c
}

// goldenSeed is the first 32-byte value at or above zero whose checksum
// starts with "01".
const goldenSeed = "0000000000000000000000000000000000000000000000000000000000000084"

func TestChecksumPrefix_Vectors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"zero 32", strings.Repeat("00", 32), "20b11a65"},
		{"golden", goldenSeed, "01d1bae3b3c00ddf"},
		{"ff 16", strings.Repeat("ff", 16), "611c6df3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := hex.DecodeString(tt.input)
			got := ChecksumPrefix(b)
			if len(got) != 128 {
				t.Fatalf("checksum length = %d, want 128", len(got))
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("ChecksumPrefix() = %s..., want prefix %s", got[:16], tt.want)
			}
		})
	}
}

func TestGenerate_GoldenVector(t *testing.T) {
	seed, err := zeroCodec(t, 32).Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got := hex.EncodeToString(seed.Bytes()); got != goldenSeed {
		t.Errorf("seed = %s, want %s", got, goldenSeed)
	}
}

func TestGenerate_WrapsOnOverflow(t *testing.T) {
	c, err := NewSeedCodec(16, DefaultSeedPrefix, bytes.NewReader(bytes.Repeat([]byte{0xff}, 16)))
	if err != nil {
		t.Fatalf("NewSeedCodec() error: %v", err)
	}
	seed, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	// ff..ff is rejected, the counter wraps to zero and 0x0164 is the first
	// accepted value.
	want := "00000000000000000000000000000164"
	if got := hex.EncodeToString(seed.Bytes()); got != want {
		t.Errorf("seed = %s, want %s", got, want)
	}
}

func TestGenerate_Random(t *testing.T) {
	c := DefaultSeedCodec()
	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		seed, err := c.Generate()
		if err != nil {
			t.Fatalf("Generate() error: %v", err)
		}
		b := seed.Bytes()
		if len(b) != DefaultSeedSize {
			t.Fatalf("seed length = %d, want %d", len(b), DefaultSeedSize)
		}
		if !c.Valid(b) {
			t.Errorf("generated seed %x fails validation", b)
		}
		seen[string(b)] = true
	}
	if len(seen) != 4 {
		t.Errorf("got %d distinct seeds out of 4", len(seen))
	}
}

func TestGenerate_ShortRandomSource(t *testing.T) {
	c, err := NewSeedCodec(32, DefaultSeedPrefix, bytes.NewReader(make([]byte, 8)))
	if err != nil {
		t.Fatalf("NewSeedCodec() error: %v", err)
	}
	if _, err := c.Generate(); err == nil {
		t.Error("expected error from exhausted random source")
	}
}

func TestNewSeedCodec_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		prefix  string
		wantErr bool
	}{
		{"default", 32, "01", false},
		{"16 bytes", 16, "01", false},
		{"20 bytes", 20, "1", false},
		{"uppercase prefix", 32, "AB", false},
		{"four chars", 32, "beef", false},
		{"size 15", 15, "01", true},
		{"size 18", 18, "01", true},
		{"size 64", 64, "01", true},
		{"empty prefix", 32, "", true},
		{"long prefix", 32, "01234", true},
		{"non-hex prefix", 32, "0g", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeedCodec(tt.size, tt.prefix, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSeedCodec(%d, %q) error = %v, wantErr %v", tt.size, tt.prefix, err, tt.wantErr)
			}
		})
	}
}

func TestSeedCodec_PrefixIsLowercased(t *testing.T) {
	c, err := NewSeedCodec(32, "1B", bytes.NewReader(make([]byte, 32)))
	if err != nil {
		t.Fatalf("NewSeedCodec() error: %v", err)
	}
	if c.Prefix() != "1b" {
		t.Errorf("Prefix() = %q, want %q", c.Prefix(), "1b")
	}
	seed, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !strings.HasPrefix(ChecksumPrefix(seed.Bytes()), "1b") {
		t.Errorf("checksum %s does not start with 1b", ChecksumPrefix(seed.Bytes())[:8])
	}
}

func TestGenerate_OtherPrefix(t *testing.T) {
	c, err := NewSeedCodec(32, "1", bytes.NewReader(make([]byte, 32)))
	if err != nil {
		t.Fatalf("NewSeedCodec() error: %v", err)
	}
	seed, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	// 39 is the first value whose checksum starts with "1".
	if b := seed.Bytes(); b[31] != 39 || !bytes.Equal(b[:31], make([]byte, 31)) {
		t.Errorf("seed = %x, want ...27", b)
	}
}

func TestFromEntropy(t *testing.T) {
	c := DefaultSeedCodec()
	golden, _ := hex.DecodeString(goldenSeed)

	seed, err := c.FromEntropy(golden)
	if err != nil {
		t.Fatalf("FromEntropy() error: %v", err)
	}
	golden[0] = 0xaa
	if seed.Bytes()[0] != 0 {
		t.Error("FromEntropy() must copy its input")
	}

	tests := []struct {
		name string
		b    []byte
	}{
		{"empty", nil},
		{"zero seed", make([]byte, 32)},
		{"short", make([]byte, 16)},
		{"long", make([]byte, 33)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.FromEntropy(tt.b)
			if !errors.Is(err, ErrInvalidSeed) {
				t.Errorf("FromEntropy() error = %v, want ErrInvalidSeed", err)
			}
		})
	}
}

func TestSeed_BytesIsCopy(t *testing.T) {
	seed, err := zeroCodec(t, 32).Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	b := seed.Bytes()
	b[31] = 0
	if seed.Bytes()[31] != 0x84 {
		t.Error("modifying Bytes() result changed the seed")
	}
}

func TestSeed_Wipe(t *testing.T) {
	seed, err := zeroCodec(t, 32).Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	other, _ := DefaultSeedCodec().FromEntropy(seed.Bytes())
	if !seed.Equal(other) {
		t.Fatal("equal seeds compare unequal")
	}

	seed.Wipe()
	if seed.IsValid() {
		t.Error("wiped seed should not be valid")
	}
	if seed.Len() != 0 {
		t.Errorf("wiped seed length = %d, want 0", seed.Len())
	}
	if seed.Equal(other) {
		t.Error("wiped seed should not equal the original")
	}
}
