package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-hd/config"
	"github.com/Klingon-tech/klingnet-hd/internal/wallet"
)

// goldenEntropy is a seed of the default family.
const goldenEntropy = "0000000000000000000000000000000000000000000000000000000000000084"

func testEnv(t *testing.T, backend config.Backend) *env {
	t.Helper()
	cfg := config.DefaultMainnet()
	cfg.DataDir = t.TempDir()
	cfg.Wallet.Backend = backend
	cfg.Wallet.Encrypt = false

	return reopenEnv(t, cfg)
}

// reopenEnv opens the wallet of cfg as a new invocation would.
func reopenEnv(t *testing.T, cfg *config.Config) *env {
	t.Helper()
	store, closeStore, err := openStore(cfg, nil)
	if err != nil {
		t.Fatalf("openStore() error: %v", err)
	}
	t.Cleanup(closeStore)
	m, err := openManager(cfg, store)
	if err != nil {
		t.Fatalf("openManager() error: %v", err)
	}
	return &env{out: &bytes.Buffer{}, cfg: cfg, m: m}
}

func output(e *env) string {
	buf := e.out.(*bytes.Buffer)
	s := buf.String()
	buf.Reset()
	return s
}

func TestCmdSeed_NewAndShow(t *testing.T) {
	e := testEnv(t, config.BackendMemory)

	if err := cmdSeed(e, []string{"new"}); err != nil {
		t.Fatalf("seed new error: %v", err)
	}
	out := output(e)
	if !strings.Contains(out, "New seed generated.") {
		t.Errorf("seed new output = %q", out)
	}
	words, _ := e.m.Mnemonic()
	if !strings.Contains(out, words) {
		t.Error("seed new did not print the mnemonic")
	}

	if err := cmdSeed(e, []string{"new"}); err != nil {
		t.Fatalf("second seed new error: %v", err)
	}
	if out := output(e); !strings.Contains(out, "already has a seed") {
		t.Errorf("second seed new output = %q", out)
	}

	if err := cmdSeed(e, nil); err == nil {
		t.Error("seed without subcommand should fail")
	}
}

func TestCmdSeed_ImportNeedsForce(t *testing.T) {
	e := testEnv(t, config.BackendMemory)

	if err := cmdSeed(e, []string{"import-entropy", goldenEntropy}); err != nil {
		t.Fatalf("import-entropy error: %v", err)
	}
	words, _ := e.m.Mnemonic()

	if err := cmdSeed(e, []string{"restore", words}); err == nil {
		t.Error("restore over an existing seed without --force should fail")
	}
	args := append([]string{"restore", "--force"}, strings.Fields(words)...)
	if err := cmdSeed(e, args); err != nil {
		t.Errorf("restore --force error: %v", err)
	}
	if err := cmdSeed(e, []string{"import-entropy", "--force", "zz"}); err == nil {
		t.Error("non-hex entropy should fail")
	}
	if err := cmdSeed(e, []string{"import-entropy", "--force", strings.Repeat("00", 32)}); !errors.Is(err, wallet.ErrInvalidSeed) {
		t.Errorf("foreign entropy error = %v, want ErrInvalidSeed", err)
	}
}

func TestCmdAccountAndDerive(t *testing.T) {
	e := testEnv(t, config.BackendFile)
	if err := cmdSeed(e, []string{"import-entropy", goldenEntropy}); err != nil {
		t.Fatalf("import-entropy error: %v", err)
	}
	output(e)

	if err := cmdAccount(e, []string{"main", "m/44'/0'/0'"}); err != nil {
		t.Fatalf("account error: %v", err)
	}
	if out := output(e); !strings.Contains(out, "xpub6D1gbKfmA1qTmAM1UAVDBdWXbXHG6PsVhqKSxwV3sniBmkZ6udEhLSA2mgqUM3iMqRFANUR3K4QSCLCa8Rw3gTtJ1YWaYJ2ttwBS6vAi68G") {
		t.Errorf("account output = %q", out)
	}

	if err := cmdDerive(e, []string{"main", "0", "5"}); err != nil {
		t.Fatalf("derive error: %v", err)
	}
	if out := output(e); !strings.Contains(out, "842bd707155cb23d13374f20bef72e7c691df269ceedfe67000dee451323a8f2") {
		t.Errorf("derive output = %q", out)
	}

	if err := cmdDerive(e, []string{"other", "0", "5", "--public", "--path", "m/44'/0'/0'"}); err != nil {
		t.Fatalf("derive --public error: %v", err)
	}
	out := output(e)
	if !strings.Contains(out, "0204a3123e03cde38ac9825df1ccfedfc81c5d674549f9fb9f23af894c8cdf148d") {
		t.Errorf("derive --public output = %q", out)
	}
	if strings.Contains(out, "Private") {
		t.Error("derive --public printed a private key")
	}

	for _, args := range [][]string{
		{"main", "0"},
		{"main", "x", "1"},
		{"main", "0", "1", "--bogus"},
	} {
		if err := cmdDerive(e, args); err == nil {
			t.Errorf("derive %v should fail", args)
		}
	}
	if err := cmdDerive(e, []string{"main", "2", "0"}); !errors.Is(err, wallet.ErrInvalidChain) {
		t.Errorf("chain 2 error = %v, want ErrInvalidChain", err)
	}
}

func TestCmdWatch(t *testing.T) {
	e := testEnv(t, config.BackendBadger)
	xpub := "xpub661MyMwAqRbcEZmHL2Z5qiAutUBLcCGqCQ5MieKCTojK7kqon4327rardG4vYrean2RjiB8gAy4pi7RAoW3BUxDGCggJ5ZrExCrmsZSwBRV"

	if err := cmdWatch(e, []string{xpub}); err != nil {
		t.Fatalf("watch error: %v", err)
	}
	output(e)

	if err := cmdXpub(e, nil); err != nil {
		t.Fatalf("xpub error: %v", err)
	}
	if out := strings.TrimSpace(output(e)); out != xpub {
		t.Errorf("xpub = %q, want %q", out, xpub)
	}

	if err := cmdDerive(e, []string{"plain", "0", "0", "--path", "m/1"}); !errors.Is(err, wallet.ErrWatchOnly) {
		t.Errorf("secret derive error = %v, want ErrWatchOnly", err)
	}
	if err := cmdDerive(e, []string{"plain", "0", "0", "--public"}); err != nil {
		t.Errorf("public derive error: %v", err)
	}

	if err := cmdState(e, nil); err != nil {
		t.Fatalf("state error: %v", err)
	}
	if out := output(e); !strings.Contains(out, "watch-only") || !strings.Contains(out, "plain") {
		t.Errorf("state output = %q", out)
	}

	if err := cmdWatch(e, []string{"garbage"}); !errors.Is(err, wallet.ErrInvalidKey) {
		t.Errorf("bad xpub error = %v, want ErrInvalidKey", err)
	}
}

func TestCmdImportAccount(t *testing.T) {
	e := testEnv(t, config.BackendMemory)
	acct := "xpub6D1gbKfmA1qTmAM1UAVDBdWXbXHG6PsVhqKSxwV3sniBmkZ6udEhLSA2mgqUM3iMqRFANUR3K4QSCLCa8Rw3gTtJ1YWaYJ2ttwBS6vAi68G"
	if err := cmdImportAccount(e, []string{"main", acct}); err != nil {
		t.Fatalf("import-account error: %v", err)
	}
	if out := output(e); !strings.Contains(out, acct) {
		t.Errorf("import-account output = %q", out)
	}
	if e.m.State() != wallet.StateNoSeed {
		t.Errorf("State() = %s, want no-seed", e.m.State())
	}
}

func TestCmdList(t *testing.T) {
	cfg := config.DefaultMainnet()
	cfg.DataDir = t.TempDir()
	cfg.Wallet.Backend = config.BackendFile
	cfg.Wallet.Encrypt = false

	var out bytes.Buffer
	if err := cmdList(&out, cfg); err != nil {
		t.Fatalf("list error: %v", err)
	}
	if !strings.Contains(out.String(), "No wallets found.") {
		t.Errorf("empty list output = %q", out.String())
	}

	for _, name := range []string{"beta", "alpha"} {
		cfg.Wallet.Name = name
		store, closeStore, err := openStore(cfg, nil)
		if err != nil {
			t.Fatalf("openStore() error: %v", err)
		}
		if err := store.WriteMasterPublicKey("x"); err != nil {
			t.Fatalf("WriteMasterPublicKey() error: %v", err)
		}
		closeStore()
	}

	out.Reset()
	if err := cmdList(&out, cfg); err != nil {
		t.Fatalf("list error: %v", err)
	}
	if got := strings.Fields(out.String()); len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("list = %v, want [alpha beta]", got)
	}
}

func TestCmdAccount_SurvivesRestart(t *testing.T) {
	e := testEnv(t, config.BackendFile)
	if err := cmdSeed(e, []string{"import-entropy", goldenEntropy}); err != nil {
		t.Fatalf("import-entropy error: %v", err)
	}
	if err := cmdAccount(e, []string{"main", "m/44'/0'/0'"}); err != nil {
		t.Fatalf("account error: %v", err)
	}
	out := output(e)
	for _, want := range []string{"Path:    m/44'/0'/0'", "Depth:   3 (index 0', parent "} {
		if !strings.Contains(out, want) {
			t.Errorf("account output missing %q: %q", want, out)
		}
	}

	// The next invocation derives along the recorded path, not wallet.rootpath.
	next := reopenEnv(t, e.cfg)
	if err := cmdDerive(next, []string{"main", "0", "5"}); err != nil {
		t.Fatalf("derive error: %v", err)
	}
	out = output(next)
	if !strings.Contains(out, "842bd707155cb23d13374f20bef72e7c691df269ceedfe67000dee451323a8f2") {
		t.Errorf("derive output = %q", out)
	}
	if !strings.Contains(out, "Path:        m/44'/0'/0'/0/5") {
		t.Errorf("derive output missing leaf path: %q", out)
	}
}

func TestCmdImportAccount_SurvivesRestart(t *testing.T) {
	e := testEnv(t, config.BackendFile)
	acct := "xpub6D1gbKfmA1qTmAM1UAVDBdWXbXHG6PsVhqKSxwV3sniBmkZ6udEhLSA2mgqUM3iMqRFANUR3K4QSCLCa8Rw3gTtJ1YWaYJ2ttwBS6vAi68G"
	if err := cmdImportAccount(e, []string{"main", acct}); err != nil {
		t.Fatalf("import-account error: %v", err)
	}
	next := reopenEnv(t, e.cfg)
	if err := cmdDerive(next, []string{"main", "0", "5", "--public"}); err != nil {
		t.Fatalf("derive --public error: %v", err)
	}
	if out := output(next); !strings.Contains(out, "0204a3123e03cde38ac9825df1ccfedfc81c5d674549f9fb9f23af894c8cdf148d") {
		t.Errorf("derive --public output = %q", out)
	}
}

func TestCmdSeedCheck(t *testing.T) {
	e := testEnv(t, config.BackendMemory)
	if err := cmdSeed(e, []string{"import-entropy", goldenEntropy}); err != nil {
		t.Fatalf("import-entropy error: %v", err)
	}
	words, _ := e.m.Mnemonic()
	output(e)

	if err := cmdSeed(e, []string{"check", words}); err != nil {
		t.Fatalf("seed check error: %v", err)
	}
	if out := output(e); !strings.Contains(out, "Mnemonic is valid.") {
		t.Errorf("seed check output = %q", out)
	}
	bad := strings.Repeat("abandon ", 23) + "art"
	if err := cmdSeedCheck(e.out, e.cfg, strings.Fields(bad)); !errors.Is(err, wallet.ErrInvalidMnemonic) {
		t.Errorf("foreign mnemonic error = %v, want ErrInvalidMnemonic", err)
	}
	if err := cmdSeedCheck(e.out, e.cfg, nil); err == nil {
		t.Error("seed check without words should fail")
	}
}
