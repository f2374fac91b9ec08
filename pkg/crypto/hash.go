// Package crypto provides the hashing and curve helpers used around HD keys.
package crypto

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// DigestSize is the length of a BLAKE3-256 digest in bytes.
const DigestSize = 32

// KeyIDSize is the number of digest bytes kept in a key identifier.
const KeyIDSize = 20

// Digest is a BLAKE3-256 hash.
type Digest [DigestSize]byte

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) Digest {
	return blake3.Sum256(data)
}

// KeyID returns a short, non-secret identifier for a compressed public key:
// hex(BLAKE3(pubkey)[:20]). It is safe to log.
func KeyID(pubKey []byte) string {
	h := Hash(pubKey)
	return hex.EncodeToString(h[:KeyIDSize])
}
