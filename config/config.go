// Package config handles application configuration.
//
// Settings come from, in increasing precedence: per-network defaults, the
// klingnet-hd.conf file in the data directory and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/Klingon-tech/klingnet-hd/internal/wallet"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Backend selects where wallet records are persisted.
type Backend string

const (
	BackendBadger Backend = "badger" // <chain>/hd badger database
	BackendFile   Backend = "file"   // <chain>/keystore/<name>.wallet
	BackendMemory Backend = "memory" // process lifetime only
)

// Config holds runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Wallet
	Wallet WalletConfig

	// Logging
	Log LogConfig
}

// WalletConfig holds key management settings.
type WalletConfig struct {
	Name     string  `conf:"wallet.name"`
	Backend  Backend `conf:"wallet.backend"`
	RootPath string  `conf:"wallet.rootpath"` // Default account root path

	// Seed family. Changing these makes existing seeds unreadable.
	SeedSize   int    `conf:"wallet.seedsize"`
	SeedPrefix string `conf:"wallet.prefix"`

	// Seal the stored seed with a password.
	Encrypt bool `conf:"wallet.encrypt"`

	// Argon2id parameters for sealing.
	Argon2Memory      uint32 `conf:"wallet.argon2.memory"` // KiB
	Argon2Iterations  uint32 `conf:"wallet.argon2.iterations"`
	Argon2Parallelism uint8  `conf:"wallet.argon2.parallelism"`
}

// EncryptionParams returns the Argon2id parameters for sealing.
func (w WalletConfig) EncryptionParams() wallet.EncryptionParams {
	return wallet.EncryptionParams{
		Memory:      w.Argon2Memory,
		Iterations:  w.Argon2Iterations,
		Parallelism: w.Argon2Parallelism,
	}
}

// SeedCodec builds the seed codec for the configured family.
func (w WalletConfig) SeedCodec() (*wallet.SeedCodec, error) {
	return wallet.NewSeedCodec(w.SeedSize, w.SeedPrefix, nil)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet
//	macOS:   ~/Library/Application Support/Klingnet
//	Windows: %APPDATA%\Klingnet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Klingnet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Klingnet")
		}
		return filepath.Join(home, "AppData", "Roaming", "Klingnet")
	default:
		return filepath.Join(home, ".klingnet")
	}
}

// ChainDataDir returns the network-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// WalletDBDir returns the badger database directory for wallet records.
func (c *Config) WalletDBDir() string {
	return filepath.Join(c.ChainDataDir(), "hd")
}

// KeystoreDir returns the directory of file-backend wallets.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.ChainDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "klingnet-hd.conf")
}
