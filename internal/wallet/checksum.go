package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"math/big"
	"strings"
)

// seedVersionKey is the public HMAC key of the seed checksum.
const seedVersionKey = "Seed version"

// ChecksumPrefix returns hex(HMAC-SHA512("Seed version", b)). A seed belongs
// to a wallet family when this string starts with the family prefix.
func ChecksumPrefix(b []byte) string {
	mac := hmac.New(sha512.New, []byte(seedVersionKey))
	mac.Write(b)

	var digest [sha512.Size]byte
	sum := mac.Sum(digest[:0])
	out := hex.EncodeToString(sum)
	clear(digest[:])
	return out
}

// hasChecksumPrefix checks b against a lowercase hex prefix.
func hasChecksumPrefix(b []byte, prefix string) bool {
	return strings.HasPrefix(ChecksumPrefix(b), prefix)
}

// zeroBig clears the limbs backing x, then resets it.
func zeroBig(x *big.Int) {
	clear(x.Bits())
	x.SetInt64(0)
}
