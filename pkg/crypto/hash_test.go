package crypto

import (
	"encoding/hex"
	"testing"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "empty input",
			input: []byte{},
			want:  "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
		},
		{
			name:  "hello",
			input: []byte("hello"),
			want:  "ea8f163db38682925e4491c5e58d4bb3506ef8c14eb78a86e908c5624a67200f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hash(tt.input)
			if got.String() != tt.want {
				t.Errorf("Hash(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeyID(t *testing.T) {
	pub, _ := hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")

	id := KeyID(pub)
	if len(id) != KeyIDSize*2 {
		t.Fatalf("KeyID length = %d, want %d", len(id), KeyIDSize*2)
	}
	full := Hash(pub).String()
	if id != full[:KeyIDSize*2] {
		t.Errorf("KeyID = %s, want prefix of %s", id, full)
	}
	if KeyID(pub) != id {
		t.Error("KeyID is not deterministic")
	}
}
