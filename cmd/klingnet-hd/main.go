// klingnet-hd manages the HD seed and account keys of a Klingnet wallet.
//
// Usage:
//
//	klingnet-hd [global options] <command> [args]
//	klingnet-hd --help
package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/Klingon-tech/klingnet-hd/config"
	"github.com/Klingon-tech/klingnet-hd/internal/log"
	"github.com/Klingon-tech/klingnet-hd/internal/storage"
	"github.com/Klingon-tech/klingnet-hd/internal/wallet"
	"golang.org/x/term"
)

const version = "0.1.0"

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}
	if flags.Help {
		config.PrintUsage(os.Stdout)
		return
	}
	if flags.Version {
		fmt.Printf("klingnet-hd version %s\n", version)
		return
	}
	if len(flags.Args) == 0 {
		config.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	cmd := flags.Args[0]
	cmdArgs := flags.Args[1:]
	log.CLI.Debug().
		Str("command", cmd).
		Str("network", string(cfg.Network)).
		Str("backend", string(cfg.Wallet.Backend)).
		Msg("run")

	switch cmd {
	case "help":
		config.PrintUsage(os.Stdout)
		return
	case "list":
		if err := cmdList(os.Stdout, cfg); err != nil {
			fatal("%v", err)
		}
		return
	case "seed":
		if len(cmdArgs) > 0 && cmdArgs[0] == "check" {
			if err := cmdSeedCheck(os.Stdout, cfg, cmdArgs[1:]); err != nil {
				fatal("%v", err)
			}
			return
		}
	}

	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		config.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg, passwordFor(cfg, cmd, cmdArgs))
	if err != nil {
		fatal("open wallet: %v", err)
	}
	defer closeStore()

	m, err := openManager(cfg, store)
	if err != nil {
		closeStore()
		fatal("load wallet %q: %v", cfg.Wallet.Name, err)
	}

	if err := run(&env{out: os.Stdout, cfg: cfg, m: m}, cmdArgs); err != nil {
		closeStore()
		fatal("%v", err)
	}
}

// openStore opens the configured backend for the configured wallet. The
// returned func releases the backend.
func openStore(cfg *config.Config, password []byte) (wallet.Store, func(), error) {
	w := cfg.Wallet
	params := w.EncryptionParams()

	switch w.Backend {
	case config.BackendFile:
		s, err := wallet.NewFileStore(cfg.KeystoreDir(), w.Name, password, params)
		return s, func() {}, err
	case config.BackendMemory:
		s, err := wallet.NewDBStore(storage.NewMemory(), w.Name, password, params)
		return s, func() {}, err
	default:
		db, err := storage.NewBadger(cfg.WalletDBDir())
		if err != nil {
			return nil, nil, err
		}
		s, err := wallet.NewDBStore(db, w.Name, password, params)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, func() { db.Close() }, nil
	}
}

func openManager(cfg *config.Config, store wallet.Store) (*wallet.Manager, error) {
	codec, err := cfg.Wallet.SeedCodec()
	if err != nil {
		return nil, err
	}
	logger := log.WithWallet(cfg.Wallet.Name)
	return wallet.NewManager(wallet.ManagerConfig{
		Store:    store,
		Codec:    codec,
		RootPath: cfg.Wallet.RootPath,
		Logger:   &logger,
	})
}

// passwordFor prompts for the wallet password when the seed is sealed.
// Commands that write a new seed ask twice.
func passwordFor(cfg *config.Config, cmd string, args []string) []byte {
	if !cfg.Wallet.Encrypt || cfg.Wallet.Backend == config.BackendMemory {
		return nil
	}
	password, err := readPassword("Wallet password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if cmd == "seed" && len(args) > 0 && args[0] != "show" {
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			fatal("read password: %v", err)
		}
		if string(password) != string(confirm) {
			fatal("passwords do not match")
		}
	}
	if len(password) == 0 {
		fatal("empty password (use --no-encrypt to store the seed in the clear)")
	}
	return password
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
