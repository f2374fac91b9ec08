// derive_key.go prints the compressed public key and key ID for a
// hex-encoded private key, e.g. one written by "klingnet-hd derive".
// Usage: go run scripts/derive_key.go <keyfile|->
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-hd/pkg/crypto"
)

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <keyfile|->")
		os.Exit(1)
	}

	var (
		data []byte
		err  error
	)
	if os.Args[1] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(os.Args[1])
	}
	if err != nil {
		fatal(err)
	}
	defer clear(data)

	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		fatal(fmt.Errorf("decode key: %w", err))
	}
	pub, err := crypto.PublicKeyFromPrivate(keyBytes)
	clear(keyBytes)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("pubkey: %x\n", pub)
	fmt.Printf("key id: %s\n", crypto.KeyID(pub))
}
