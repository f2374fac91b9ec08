package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Flags holds the parsed global command-line flags.
type Flags struct {
	Help    bool
	Version bool

	Network string
	DataDir string
	Config  string

	Wallet    string
	Backend   string
	RootPath  string
	NoEncrypt bool

	LogLevel string
	LogFile  string
	LogJSON  bool

	// Args is the command and its own arguments.
	Args []string

	set map[string]bool
}

// Set reports whether the named flag was given explicitly.
func (f *Flags) Set(name string) bool {
	return f.set[name]
}

// ParseFlags parses the global flags in args. Parsing stops at the first
// non-flag argument, which starts Flags.Args.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{set: map[string]bool{}}
	var testnet bool

	fs := flag.NewFlagSet("klingnet-hd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, name := range []string{"help", "h"} {
		fs.BoolVar(&f.Help, name, false, "show help")
	}
	for _, name := range []string{"version", "v"} {
		fs.BoolVar(&f.Version, name, false, "show version")
	}
	for _, name := range []string{"config", "c"} {
		fs.StringVar(&f.Config, name, "", "config file path")
	}
	fs.StringVar(&f.Network, "network", "", "mainnet or testnet")
	fs.BoolVar(&testnet, "testnet", false, "same as --network=testnet")
	fs.StringVar(&f.DataDir, "datadir", "", "data directory")
	fs.StringVar(&f.Wallet, "wallet", "", "wallet name")
	fs.StringVar(&f.Backend, "backend", "", "badger, file or memory")
	fs.StringVar(&f.RootPath, "rootpath", "", "default account root path")
	fs.BoolVar(&f.NoEncrypt, "no-encrypt", false, "store the seed without a password")
	fs.StringVar(&f.LogLevel, "log-level", "", "trace, debug, info, warn or error")
	fs.StringVar(&f.LogFile, "log-file", "", "also log to this file")
	fs.BoolVar(&f.LogJSON, "log-json", false, "log as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			f.Help = true
			return f, nil
		}
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	if testnet {
		f.Network = string(Testnet)
	}
	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags copies the explicitly given flags into cfg.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	if f.Set("datadir") {
		cfg.DataDir = f.DataDir
	}
	if f.Set("wallet") {
		cfg.Wallet.Name = f.Wallet
	}
	if f.Set("backend") {
		cfg.Wallet.Backend = Backend(strings.ToLower(f.Backend))
	}
	if f.Set("rootpath") {
		cfg.Wallet.RootPath = f.RootPath
	}
	if f.NoEncrypt {
		cfg.Wallet.Encrypt = false
	}
	if f.Set("log-level") {
		cfg.Log.Level = f.LogLevel
	}
	if f.Set("log-file") {
		cfg.Log.File = f.LogFile
	}
	if f.Set("log-json") {
		cfg.Log.JSON = f.LogJSON
	}
}

// PrintUsage writes the global usage text to w.
func PrintUsage(w io.Writer) {
	usage := `Klingnet HD - hierarchical deterministic key manager

Usage:
  klingnet-hd [global options] <command> [args]

Global Options:
  --help, -h      Show this help message
  --version, -v   Show version information
  --network       Network type: mainnet (default) or testnet
  --testnet       Shorthand for --network=testnet
  --datadir       Data directory (default: ~/.klingnet)
  --config, -c    Config file path (default: <datadir>/klingnet-hd.conf)

Wallet Options:
  --wallet        Wallet name (default: default)
  --backend       Storage backend: badger (default), file or memory
  --rootpath      Default account root path (mainnet: m/44'/8888'/0',
                  testnet: m/44'/1'/0')
  --no-encrypt    Store the seed without a password

Logging Options:
  --log-level     Log level: trace, debug, info, warn, error (default: info)
  --log-file      Also write logs to this file
  --log-json      Output logs as JSON

Commands:
  state                           Show wallet state and accounts
  list                            List wallets in the selected backend
  seed new                        Generate a seed if none exists
  seed show                       Print the seed mnemonic
  seed check "<mnemonic>"         Check a mnemonic without touching the wallet
  seed restore "<mnemonic>"       Replace the seed from a mnemonic
  seed import-entropy <hex>       Replace the seed from raw entropy
  watch <xpub>                    Make the wallet watch-only
  xpub                            Print the master extended public key
  account <name> [path]           Create or refresh an account
  import-account <name> <xpub>    Watch an account by its extended public key
  derive <name> <chain> <index> [--public]
                                  Derive a key below an account

Examples:
  # Create a testnet wallet and show its mnemonic
  klingnet-hd --testnet seed new
  klingnet-hd --testnet seed show

  # Derive the sixth receive key of the "main" account
  klingnet-hd account main "m/44'/8888'/0'"
  klingnet-hd derive main 0 5
`
	fmt.Fprint(w, usage)
}

// Load builds the configuration from, lowest precedence first, the
// defaults of the selected network, the config file and the flags. The
// data directories and a default config file are created on first start.
//
// With --help or --version, Load returns the flags and a nil config.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	dataDir := flags.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	configPath := flags.Config
	if configPath == "" {
		configPath = (&Config{DataDir: dataDir}).ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config file: %w", err)
	}

	cfg := Default(resolveNetwork(flags, fileValues))
	cfg.DataDir = dataDir
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, err
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("apply config file: %w", err)
	}
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, flags, nil
}

// resolveNetwork picks the network whose defaults Load starts from.
func resolveNetwork(flags *Flags, fileValues map[string]string) NetworkType {
	for _, n := range []string{flags.Network, fileValues["network"]} {
		if n != "" {
			return NetworkType(strings.ToLower(n))
		}
	}
	return Mainnet
}

// EnsureDataDirs creates the data directories and writes a default config
// file when none exists. It is safe to call on every start.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.ChainDataDir(), cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	path := cfg.ConfigFile()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}
	if err := WriteDefaultConfig(path, cfg.Network); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
