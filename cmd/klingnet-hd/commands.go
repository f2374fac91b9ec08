package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klingnet-hd/config"
	"github.com/Klingon-tech/klingnet-hd/internal/storage"
	"github.com/Klingon-tech/klingnet-hd/internal/wallet"
)

// env is what a command runs against.
type env struct {
	out io.Writer
	cfg *config.Config
	m   *wallet.Manager
}

var commands = map[string]func(*env, []string) error{
	"state":          cmdState,
	"seed":           cmdSeed,
	"watch":          cmdWatch,
	"xpub":           cmdXpub,
	"account":        cmdAccount,
	"import-account": cmdImportAccount,
	"derive":         cmdDerive,
}

// ── state / list ────────────────────────────────────────────────────────

func cmdState(e *env, _ []string) error {
	fmt.Fprintf(e.out, "Wallet:    %s (%s, %s)\n", e.cfg.Wallet.Name, e.cfg.Network, e.cfg.Wallet.Backend)
	fmt.Fprintf(e.out, "State:     %s\n", e.m.State())
	fmt.Fprintf(e.out, "Root path: %s\n", e.cfg.Wallet.RootPath)
	if xpub, err := e.m.MasterPublicKey(); err == nil {
		fmt.Fprintf(e.out, "Master:    %s\n", xpub.ID())
	}
	for _, name := range e.m.Accounts() {
		_, pub, _ := e.m.AccountKeys(name)
		fmt.Fprintf(e.out, "Account:   %s %s\n", name, pub.ID())
	}
	return nil
}

func cmdList(out io.Writer, cfg *config.Config) error {
	var (
		names []string
		err   error
	)
	switch cfg.Wallet.Backend {
	case config.BackendFile:
		names, err = wallet.ListWalletFiles(cfg.KeystoreDir())
	case config.BackendMemory:
		return nil
	default:
		db, openErr := storage.NewBadger(cfg.WalletDBDir())
		if openErr != nil {
			return openErr
		}
		defer db.Close()
		names, err = wallet.ListDBWallets(db)
	}
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "No wallets found.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

// ── seed ────────────────────────────────────────────────────────────────

const seedUsage = "Usage: klingnet-hd seed <new|show|check|restore|import-entropy> [args]"

func cmdSeed(e *env, args []string) error {
	if len(args) < 1 {
		return errors.New(seedUsage)
	}
	switch args[0] {
	case "new":
		return cmdSeedNew(e)
	case "show":
		return cmdSeedShow(e)
	case "check":
		return cmdSeedCheck(e.out, e.cfg, args[1:])
	case "restore":
		return cmdSeedReplace(e, "seed restore", args[1:], func(in string) error {
			return e.m.SetSeedFromMnemonic(in)
		})
	case "import-entropy":
		return cmdSeedReplace(e, "seed import-entropy", args[1:], func(in string) error {
			b, err := hex.DecodeString(in)
			if err != nil {
				return fmt.Errorf("entropy must be hex: %w", err)
			}
			defer clear(b)
			return e.m.SetSeedFromEntropy(b)
		})
	default:
		return fmt.Errorf("unknown seed command: %s\n%s", args[0], seedUsage)
	}
}

func cmdSeedNew(e *env) error {
	if hasSeed(e.m) {
		fmt.Fprintln(e.out, "Wallet already has a seed.")
		return nil
	}
	if err := e.m.EnsureSeed(); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "New seed generated.")
	return cmdSeedShow(e)
}

func cmdSeedShow(e *env) error {
	words, err := e.m.Mnemonic()
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Mnemonic (write this down!):")
	fmt.Fprintf(e.out, "  %s\n", words)
	return nil
}

// cmdSeedReplace parses [--force] <input...> and installs the seed built by
// set. An existing seed is only replaced with --force.
func cmdSeedReplace(e *env, name string, args []string, set func(string) error) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	force := fs.Bool("force", false, "Replace an existing seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	input := strings.Join(fs.Args(), " ")
	if input == "" {
		return fmt.Errorf("usage: klingnet-hd %s [--force] <input>", name)
	}
	if hasSeed(e.m) && !*force {
		return fmt.Errorf("wallet already has a seed; use --force to replace it (cached accounts are dropped)")
	}
	if err := set(input); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Seed replaced.")
	return nil
}

func hasSeed(m *wallet.Manager) bool {
	s := m.State()
	return s == wallet.StateSeedOnly || s == wallet.StateSeedWithAccounts
}

// ── watch-only ──────────────────────────────────────────────────────────

func cmdWatch(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: klingnet-hd watch <xpub>")
	}
	key, err := wallet.ParseExtendedKey(args[0])
	if err != nil {
		return err
	}
	if err := e.m.SetWatchOnlyMasterPublicKey(key); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Watching %s\n", key.ID())
	return nil
}

func cmdXpub(e *env, _ []string) error {
	xpub, err := e.m.MasterPublicKey()
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, xpub.String())
	return nil
}

// ── accounts ────────────────────────────────────────────────────────────

func cmdAccount(e *env, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: klingnet-hd account <name> [path]")
	}
	name, path := args[0], e.cfg.Wallet.RootPath
	if len(args) == 2 {
		path = args[1]
	}
	if err := e.m.CreateOrRefreshAccount(name, path); err != nil {
		return err
	}
	return printAccount(e, name)
}

func cmdImportAccount(e *env, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: klingnet-hd import-account <name> <xpub>")
	}
	key, err := wallet.ParseExtendedKey(args[1])
	if err != nil {
		return err
	}
	if err := e.m.ImportAccountPublicKey(args[0], key); err != nil {
		return err
	}
	return printAccount(e, args[0])
}

func printAccount(e *env, name string) error {
	_, pub, ok := e.m.AccountKeys(name)
	if !ok {
		return fmt.Errorf("account %q not cached", name)
	}
	fmt.Fprintf(e.out, "Account: %s\n", name)
	if path, ok := e.m.AccountPath(name); ok {
		fmt.Fprintf(e.out, "Path:    %s\n", path)
	}
	fmt.Fprintf(e.out, "Depth:   %d (index %s, parent %08x)\n", pub.Depth(), childIndex(pub.ChildIndex()), pub.ParentFingerprint())
	fmt.Fprintf(e.out, "Key ID:  %s\n", pub.ID())
	fmt.Fprintf(e.out, "Xpub:    %s\n", pub.String())
	return nil
}

func childIndex(i uint32) string {
	if i >= wallet.HardenedOffset {
		return strconv.FormatUint(uint64(i-wallet.HardenedOffset), 10) + "'"
	}
	return strconv.FormatUint(uint64(i), 10)
}

// ── derive ──────────────────────────────────────────────────────────────

const deriveUsage = "usage: klingnet-hd derive <name> <chain> <index> [--public] [--path <root>]"

func cmdDerive(e *env, args []string) error {
	var (
		positional []string
		public     bool
		root       string
	)
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "--public":
			public = true
		case a == "--path" && i+1 < len(args):
			root = args[i+1]
			i++
		case strings.HasPrefix(a, "--path="):
			root = a[len("--path="):]
		case strings.HasPrefix(a, "-"):
			return fmt.Errorf("unknown flag %s\n%s", a, deriveUsage)
		default:
			positional = append(positional, a)
		}
	}
	if len(positional) != 3 {
		return errors.New(deriveUsage)
	}
	name := positional[0]
	chain, err := strconv.ParseUint(positional[1], 10, 32)
	if err != nil {
		return fmt.Errorf("chain: %w", err)
	}
	index, err := strconv.ParseUint(positional[2], 10, 32)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	if root != "" {
		if err := e.m.CreateOrRefreshAccount(name, root); err != nil {
			return err
		}
	}

	if public {
		key, err := e.m.DerivePublicKey(name, uint32(chain), uint32(index))
		if err != nil {
			return err
		}
		printLeafPath(e, name, uint32(chain), uint32(index))
		fmt.Fprintf(e.out, "Public key: %x\n", key.PublicKeyBytes())
		fmt.Fprintf(e.out, "Key ID:     %s\n", key.ID())
		return nil
	}

	key, err := e.m.DeriveSecret(name, uint32(chain), uint32(index))
	if err != nil {
		return err
	}
	defer key.Zero()
	priv := key.PrivateKeyBytes()
	defer clear(priv)
	printLeafPath(e, name, uint32(chain), uint32(index))
	fmt.Fprintf(e.out, "Private key: %x\n", priv)
	fmt.Fprintf(e.out, "Public key:  %x\n", key.PublicKeyBytes())
	fmt.Fprintf(e.out, "Key ID:      %s\n", key.ID())
	return nil
}

// printLeafPath prints the full path of a derived key when the account's
// own path is known.
func printLeafPath(e *env, name string, chain, index uint32) {
	path, ok := e.m.AccountPath(name)
	if !ok {
		return
	}
	leaf := path.Child(wallet.DerivationStep{Index: chain}).Child(wallet.DerivationStep{Index: index})
	fmt.Fprintf(e.out, "Path:        %s\n", leaf)
}

// cmdSeedCheck reports whether a mnemonic belongs to the configured seed
// family. It never touches the wallet store.
func cmdSeedCheck(out io.Writer, cfg *config.Config, args []string) error {
	words := strings.Join(args, " ")
	if words == "" {
		return errors.New(`usage: klingnet-hd seed check "<mnemonic>"`)
	}
	codec, err := cfg.Wallet.SeedCodec()
	if err != nil {
		return err
	}
	if !codec.ValidateMnemonic(words) {
		return wallet.ErrInvalidMnemonic
	}
	fmt.Fprintln(out, "Mnemonic is valid.")
	return nil
}
