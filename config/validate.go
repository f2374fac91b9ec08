package config

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-hd/internal/log"
	"github.com/Klingon-tech/klingnet-hd/internal/wallet"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}

	w := cfg.Wallet
	if !wallet.ValidWalletName(w.Name) {
		return fmt.Errorf("wallet.name %q must be 1-64 characters of [A-Za-z0-9._-]", w.Name)
	}
	switch w.Backend {
	case BackendBadger, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("wallet.backend must be %s, %s or %s", BackendBadger, BackendFile, BackendMemory)
	}
	if !wallet.ValidSeedSize(w.SeedSize) {
		return fmt.Errorf("wallet.seedsize must be 16, 20, 24, 28 or 32")
	}
	if !wallet.ValidSeedPrefix(w.SeedPrefix) {
		return fmt.Errorf("wallet.prefix must be 1-4 hex characters")
	}
	if _, err := wallet.ParsePath(w.RootPath); err != nil {
		return fmt.Errorf("wallet.rootpath: %w", err)
	}
	if w.Encrypt {
		if err := w.EncryptionParams().Validate(); err != nil {
			return fmt.Errorf("wallet.argon2: %w", err)
		}
	}

	if !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}
