package wallet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// fastParams returns low-cost Argon2 params for fast tests.
func fastParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64, // 64 KiB (minimal)
		Iterations:  1,
		Parallelism: 1,
	}
}

var testAAD = []byte("wallet/test")

func TestSealOpen_Roundtrip(t *testing.T) {
	plaintext := []byte("secret wallet data")
	password := []byte("strong-password-123")

	sealed, err := Seal(plaintext, password, testAAD, fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}

	opened, err := Open(sealed, password, testAAD)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("opened = %q, want %q", opened, plaintext)
	}
}

func TestSealOpen_EmptyData(t *testing.T) {
	sealed, err := Seal([]byte{}, []byte("pass"), nil, fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	opened, err := Open(sealed, []byte("pass"), nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if len(opened) != 0 {
		t.Errorf("opened empty data should be empty, got %d bytes", len(opened))
	}
}

func TestOpen_Failures(t *testing.T) {
	sealed, err := Seal([]byte("secret data"), []byte("correct"), testAAD, fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}

	corrupted := bytes.Clone(sealed)
	corrupted[len(corrupted)-1] ^= 0xFF

	if _, err := Open(sealed, []byte("wrong"), testAAD); !errors.Is(err, ErrDecrypt) {
		t.Errorf("wrong password error = %v, want ErrDecrypt", err)
	}
	if _, err := Open(sealed, []byte("correct"), []byte("wallet/other")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("wrong aad error = %v, want ErrDecrypt", err)
	}
	if _, err := Open(corrupted, []byte("correct"), testAAD); !errors.Is(err, ErrDecrypt) {
		t.Errorf("corrupted error = %v, want ErrDecrypt", err)
	}
	if _, err := Open([]byte("too short"), []byte("correct"), testAAD); err == nil {
		t.Error("Open with truncated data should fail")
	}

	badVersion := bytes.Clone(sealed)
	badVersion[0] = 9
	if _, err := Open(badVersion, []byte("correct"), testAAD); err == nil {
		t.Error("Open with unknown version should fail")
	}
}

func TestOpen_RejectsTamperedParams(t *testing.T) {
	sealed, err := Seal([]byte("data"), []byte("pass"), nil, fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	binary.LittleEndian.PutUint32(sealed[1+SaltSize:], maxMemoryKiB+1)
	if _, err := Open(sealed, []byte("pass"), nil); err == nil || errors.Is(err, ErrDecrypt) {
		t.Errorf("error = %v, want parameter validation error", err)
	}
}

func TestSeal_DifferentEachTime(t *testing.T) {
	plaintext := []byte("same data")
	password := []byte("same pass")

	s1, err := Seal(plaintext, password, nil, fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	s2, err := Seal(plaintext, password, nil, fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if bytes.Equal(s1, s2) {
		t.Error("sealing same data twice should produce different output (random salt/nonce)")
	}
}

func TestSeal_OutputFormat(t *testing.T) {
	plaintext := []byte("test")
	params := fastParams()

	sealed, err := Seal(plaintext, []byte("pass"), nil, params)
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}

	want := headerSize + 24 + len(plaintext) + 16
	if len(sealed) != want {
		t.Errorf("sealed length = %d, want %d", len(sealed), want)
	}
	if sealed[0] != sealVersion {
		t.Errorf("version byte = %d, want %d", sealed[0], sealVersion)
	}
	if got := binary.LittleEndian.Uint32(sealed[1+SaltSize:]); got != params.Memory {
		t.Errorf("memory = %d, want %d", got, params.Memory)
	}
}

func TestEncryptionParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  EncryptionParams
		wantErr bool
	}{
		{"default", DefaultParams(), false},
		{"fast", fastParams(), false},
		{"zero memory", EncryptionParams{Memory: 0, Iterations: 1, Parallelism: 1}, true},
		{"huge memory", EncryptionParams{Memory: maxMemoryKiB + 1, Iterations: 1, Parallelism: 1}, true},
		{"zero iterations", EncryptionParams{Memory: 64, Iterations: 0, Parallelism: 1}, true},
		{"many iterations", EncryptionParams{Memory: 64, Iterations: maxIterations + 1, Parallelism: 1}, true},
		{"zero parallelism", EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Seal([]byte("x"), []byte("p"), nil, EncryptionParams{}); err == nil {
		t.Error("Seal with zero params should fail")
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Memory != 64*1024 {
		t.Errorf("Memory = %d, want %d", p.Memory, 64*1024)
	}
	if p.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", p.Iterations)
	}
	if p.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4", p.Parallelism)
	}
}
