package wallet

import "errors"

var (
	// ErrInvalidMnemonic covers every mnemonic rejection: unknown words, wrong
	// word count, bad BIP-39 checksum and a seed outside this wallet family.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrInvalidSeed is returned for raw seed material of the wrong length or
	// without the wallet checksum prefix.
	ErrInvalidSeed = errors.New("invalid seed")

	ErrMalformedPath      = errors.New("malformed derivation path")
	ErrDerivationFailed   = errors.New("key derivation failed")
	ErrHardenedOnPublic   = errors.New("hardened derivation requires a private key")
	ErrSeedAlreadyPresent = errors.New("wallet already has a seed")
	ErrNoMasterMaterial   = errors.New("wallet has neither a seed nor a master public key")
	ErrWatchOnly          = errors.New("wallet is watch-only")
	ErrInvalidKey         = errors.New("invalid extended key")
	ErrInvalidChain       = errors.New("invalid chain selector")

	// ErrNotFound is returned by a Store when the requested record is absent.
	ErrNotFound = errors.New("record not found")
)
