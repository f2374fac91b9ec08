package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ParsePublicKey parses a compressed or uncompressed secp256k1 public key and
// checks that it is a point on the curve.
func ParsePublicKey(b []byte) (*secp256k1.PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return pub, nil
}

// PublicKeyFromPrivate returns the compressed public key for a 32-byte
// private scalar.
func PublicKeyFromPrivate(priv []byte) ([]byte, error) {
	if len(priv) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(priv))
	}
	key := secp256k1.PrivKeyFromBytes(priv)
	defer key.Zero()
	return key.PubKey().SerializeCompressed(), nil
}
