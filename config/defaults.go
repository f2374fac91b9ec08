package config

import "github.com/Klingon-tech/klingnet-hd/internal/wallet"

// Default account root paths (BIP-44 purpose / coin type / account 0).
const (
	MainnetRootPath = "m/44'/8888'/0'"
	TestnetRootPath = "m/44'/1'/0'"
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	kdf := wallet.DefaultParams()
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Wallet: WalletConfig{
			Name:              "default",
			Backend:           BackendBadger,
			RootPath:          MainnetRootPath,
			SeedSize:          wallet.DefaultSeedSize,
			SeedPrefix:        wallet.DefaultSeedPrefix,
			Encrypt:           true,
			Argon2Memory:      kdf.Memory,
			Argon2Iterations:  kdf.Iterations,
			Argon2Parallelism: kdf.Parallelism,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Wallet.RootPath = TestnetRootPath
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
