package wallet

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-hd/internal/log"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Store persists the seed or watch-only key. Required.
	Store Store

	// Codec defines the seed family. Nil selects DefaultSeedCodec.
	Codec *SeedCodec

	// RootPath is the account root path used when an account is first
	// touched without CreateOrRefreshAccount, e.g. "m/44'/8888'/0'".
	RootPath string

	// Lock guards all manager state. A wallet may pass the lock that also
	// guards its other state; it must not be held when calling the Manager.
	// Nil selects a private mutex.
	Lock sync.Locker

	// Logger defaults to log.Keys.
	Logger *zerolog.Logger
}

// Manager owns a wallet's master material and its account key cache.
type Manager struct {
	mu       sync.Locker
	codec    *SeedCodec
	store    Store
	rootPath DerivationPath
	log      zerolog.Logger

	material material
	accounts map[string]accountKeys
	// paths survive cache purges; they are configuration, not key material.
	paths map[string]DerivationPath
}

// NewManager creates a manager and loads the persisted material. A stored
// seed takes precedence over a stored watch-only key. A stored seed that
// fails validation is an error; it is never replaced silently.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("manager: store is required")
	}
	root, err := ParsePath(cfg.RootPath)
	if err != nil {
		return nil, fmt.Errorf("manager root path: %w", err)
	}

	m := &Manager{
		mu:       cfg.Lock,
		codec:    cfg.Codec,
		store:    cfg.Store,
		rootPath: root,
		log:      log.Keys,
		material: noMaterial{},
		accounts: make(map[string]accountKeys),
		paths:    make(map[string]DerivationPath),
	}
	if m.mu == nil {
		m.mu = &sync.Mutex{}
	}
	if m.codec == nil {
		m.codec = DefaultSeedCodec()
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	}

	if err := m.load(); err != nil {
		return nil, err
	}
	if err := m.loadAccounts(); err != nil {
		return nil, err
	}
	m.log.Info().Str("state", m.State().String()).Str("root_path", root.String()).Msg("key manager ready")
	return m, nil
}

func (m *Manager) load() error {
	raw, err := m.store.ReadSeed()
	switch {
	case err == nil:
		defer clear(raw)
		seed, err := m.codec.FromEntropy(raw)
		if err != nil {
			return fmt.Errorf("stored seed: %w", err)
		}
		m.material = seedMaterial{seed: seed}
		return nil
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("load seed: %w", err)
	}

	xpub, err := m.store.ReadMasterPublicKey()
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load master public key: %w", err)
	}
	key, err := ParseExtendedKey(xpub)
	if err != nil {
		return fmt.Errorf("stored master public key: %w", err)
	}
	if key.IsPrivate() {
		return fmt.Errorf("stored master public key: %w: holds a private key", ErrInvalidKey)
	}
	m.material = watchOnlyMaterial{xpub: key}
	return nil
}

// loadAccounts restores account paths and imported account keys. Derived
// accounts are re-derived lazily on first use. Imported keys are skipped
// while a seed is present.
func (m *Manager) loadAccounts() error {
	recs, err := m.store.ReadAccounts()
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	_, haveSeed := m.material.(seedMaterial)
	for _, rec := range recs {
		switch {
		case rec.XPub != "":
			if haveSeed {
				m.log.Warn().Str("account", rec.Name).Msg("ignoring imported account key of a seed wallet")
				continue
			}
			key, err := ParseExtendedKey(rec.XPub)
			if err != nil {
				return fmt.Errorf("stored account %q: %w", rec.Name, err)
			}
			if key.IsPrivate() {
				return fmt.Errorf("stored account %q: %w: holds a private key", rec.Name, ErrInvalidKey)
			}
			m.accounts[rec.Name] = accountKeys{pub: key}
		default:
			path, err := ParsePath(rec.Path)
			if err != nil {
				return fmt.Errorf("stored account %q: %w", rec.Name, err)
			}
			m.paths[rec.Name] = path
		}
	}
	return nil
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.material.(type) {
	case seedMaterial:
		if len(m.accounts) > 0 {
			return StateSeedWithAccounts
		}
		return StateSeedOnly
	case watchOnlyMaterial:
		return StateWatchOnly
	default:
		return StateNoSeed
	}
}

// Codec returns the seed codec in use.
func (m *Manager) Codec() *SeedCodec {
	return m.codec
}

// EnsureSeed generates and persists a seed if none is present. Generation
// runs without the lock held; if another caller installs material in the
// meantime, the fresh seed is wiped and discarded. Watch-only wallets never
// get a seed this way and fail with ErrWatchOnly.
func (m *Manager) EnsureSeed() error {
	m.mu.Lock()
	err := m.needSeedLocked()
	m.mu.Unlock()
	if err != nil {
		if errors.Is(err, errHaveSeed) {
			return nil
		}
		return err
	}

	done := log.Benchmark(m.log, "generate seed")
	seed, err := m.codec.Generate()
	done()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.needSeedLocked(); err != nil {
		seed.Wipe()
		if errors.Is(err, errHaveSeed) {
			return nil
		}
		return err
	}
	if err := m.store.WriteSeed(seed.entropy); err != nil {
		seed.Wipe()
		return fmt.Errorf("persist seed: %w", err)
	}
	m.replaceMaterialLocked(seedMaterial{seed: seed})
	m.log.Info().Int("size", seed.Len()).Msg("generated new HD seed")
	return nil
}

var errHaveSeed = errors.New("seed present")

func (m *Manager) needSeedLocked() error {
	switch m.material.(type) {
	case seedMaterial:
		return errHaveSeed
	case watchOnlyMaterial:
		return ErrWatchOnly
	}
	return nil
}

// SetSeedFromEntropy replaces the seed with caller-supplied entropy.
func (m *Manager) SetSeedFromEntropy(b []byte) error {
	seed, err := m.codec.FromEntropy(b)
	if err != nil {
		return err
	}
	return m.setSeed(seed, "entropy")
}

// SetSeedFromMnemonic replaces the seed with the one a mnemonic encodes.
func (m *Manager) SetSeedFromMnemonic(words string) error {
	seed, err := m.codec.FromMnemonic(words)
	if err != nil {
		return err
	}
	return m.setSeed(seed, "mnemonic")
}

// setSeed persists seed, then installs it. On failure nothing changes.
func (m *Manager) setSeed(seed *Seed, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.WriteSeed(seed.entropy); err != nil {
		seed.Wipe()
		return fmt.Errorf("persist seed: %w", err)
	}
	purged := len(m.accounts)
	m.replaceMaterialLocked(seedMaterial{seed: seed})
	m.log.Info().Str("source", source).Int("purged_accounts", purged).Msg("seed replaced")
	return nil
}

// SetWatchOnlyMasterPublicKey installs an extended public key as the master
// material. It fails with ErrSeedAlreadyPresent while a seed exists, so a
// spending wallet is never downgraded.
func (m *Manager) SetWatchOnlyMasterPublicKey(key *HDKey) error {
	if key == nil || key.IsPrivate() {
		return fmt.Errorf("%w: watch-only key must be an extended public key", ErrInvalidKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.material.(seedMaterial); ok {
		return ErrSeedAlreadyPresent
	}
	xpub := key.Clone()
	if err := m.store.WriteMasterPublicKey(xpub.String()); err != nil {
		return fmt.Errorf("persist master public key: %w", err)
	}
	m.replaceMaterialLocked(watchOnlyMaterial{xpub: xpub})
	m.log.Info().Str("key_id", xpub.ID()).Msg("watch-only master public key set")
	return nil
}

// replaceMaterialLocked swaps in next, wipes the old seed and purges every
// cached account.
func (m *Manager) replaceMaterialLocked(next material) {
	switch old := m.material.(type) {
	case seedMaterial:
		old.seed.Wipe()
	case watchOnlyMaterial:
		old.xpub.Zero()
	}
	m.material = next
	for name, acct := range m.accounts {
		acct.wipe()
		delete(m.accounts, name)
	}
}

// MasterPublicKey returns the neutered master key of the seed, or the
// watch-only key when there is no seed.
func (m *Manager) MasterPublicKey() (*HDKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch mat := m.material.(type) {
	case seedMaterial:
		master, err := masterKey(mat.seed)
		if err != nil {
			return nil, err
		}
		defer master.Zero()
		return master.Neuter(), nil
	case watchOnlyMaterial:
		return mat.xpub.Clone(), nil
	}
	return nil, ErrNoMasterMaterial
}

// Mnemonic returns the mnemonic of the current seed.
func (m *Manager) Mnemonic() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch mat := m.material.(type) {
	case seedMaterial:
		return m.codec.ToMnemonic(mat.seed)
	case watchOnlyMaterial:
		return "", ErrWatchOnly
	}
	return "", ErrNoMasterMaterial
}

// masterKey builds the BIP-32 master key directly from the seed bytes.
func masterKey(seed *Seed) (*HDKey, error) {
	raw := seed.Bytes()
	defer clear(raw)
	return NewMasterKey(raw)
}

// CreateOrRefreshAccount derives the account key at rootPath and caches it
// under name, replacing any previous entry; the path is persisted so later
// sessions derive the account the same way. A seed is generated first only
// if the wallet has no material at all: watch-only wallets never get one and
// derive the public key only. On failure the cache is unchanged.
func (m *Manager) CreateOrRefreshAccount(name, rootPath string) error {
	path, err := ParsePath(rootPath)
	if err != nil {
		return err
	}
	if err := m.ensureMaterial(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, err := m.deriveAccountLocked(name, path)
	if err != nil {
		return err
	}
	if err := m.store.WriteAccount(AccountRecord{Name: name, Path: path.String()}); err != nil {
		acct.wipe()
		return fmt.Errorf("persist account %q: %w", name, err)
	}
	m.cacheAccountLocked(name, path, acct)
	return nil
}

// AccountPath returns the path the named account is derived along, if known.
// Imported accounts have none.
func (m *Manager) AccountPath(name string) (DerivationPath, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path, ok := m.paths[name]
	if !ok {
		return nil, false
	}
	return append(DerivationPath(nil), path...), true
}

func (m *Manager) ensureMaterial() error {
	m.mu.Lock()
	_, none := m.material.(noMaterial)
	m.mu.Unlock()
	if none {
		return m.EnsureSeed()
	}
	return nil
}

func (m *Manager) deriveAccountLocked(name string, path DerivationPath) (accountKeys, error) {
	var acct accountKeys

	switch mat := m.material.(type) {
	case seedMaterial:
		master, err := masterKey(mat.seed)
		if err != nil {
			return acct, err
		}
		priv, err := DerivePrivate(master, path)
		if priv != master {
			master.Zero()
		}
		if err != nil {
			return acct, fmt.Errorf("account %q: %w", name, err)
		}
		acct = accountKeys{priv: priv, pub: priv.Neuter()}
	case watchOnlyMaterial:
		pub, err := DerivePublic(mat.xpub, path)
		if err != nil {
			return acct, fmt.Errorf("account %q: %w", name, err)
		}
		if pub == mat.xpub {
			pub = pub.Clone()
		}
		acct = accountKeys{pub: pub}
	default:
		return acct, ErrNoMasterMaterial
	}
	return acct, nil
}

// cacheAccountLocked installs acct under name, wiping any previous entry.
func (m *Manager) cacheAccountLocked(name string, path DerivationPath, acct accountKeys) {
	if old, ok := m.accounts[name]; ok {
		old.wipe()
	}
	m.accounts[name] = acct
	m.paths[name] = path
	m.log.Info().
		Str("account", name).
		Str("path", path.String()).
		Bool("watch_only", acct.priv == nil).
		Str("key_id", acct.pub.ID()).
		Msg("account key cached")
}

// ImportAccountPublicKey caches an account-level extended public key, for
// wallets that watch an account without holding its seed. It fails with
// ErrSeedAlreadyPresent while a seed exists, because seed wallets only cache
// seed-derived accounts.
func (m *Manager) ImportAccountPublicKey(name string, xpub *HDKey) error {
	if xpub == nil || xpub.IsPrivate() {
		return fmt.Errorf("%w: account key must be an extended public key", ErrInvalidKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.material.(seedMaterial); ok {
		return ErrSeedAlreadyPresent
	}
	if err := m.store.WriteAccount(AccountRecord{Name: name, XPub: xpub.String()}); err != nil {
		return fmt.Errorf("persist account %q: %w", name, err)
	}
	if old, ok := m.accounts[name]; ok {
		old.wipe()
	}
	m.accounts[name] = accountKeys{pub: xpub.Clone()}
	delete(m.paths, name)
	m.log.Info().Str("account", name).Str("key_id", xpub.ID()).Msg("account public key imported")
	return nil
}

// withAccount runs fn under the lock with the cached keys of name, deriving
// the account first if needed.
func (m *Manager) withAccount(name string, fn func(accountKeys) error) error {
	m.mu.Lock()
	if acct, ok := m.accounts[name]; ok {
		defer m.mu.Unlock()
		return fn(acct)
	}
	m.mu.Unlock()

	if err := m.ensureMaterial(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[name]
	if !ok {
		path, known := m.paths[name]
		if !known {
			path = m.rootPath
		}
		var err error
		if acct, err = m.deriveAccountLocked(name, path); err != nil {
			return err
		}
		m.cacheAccountLocked(name, path, acct)
	}
	return fn(acct)
}

// DeriveSecret returns the private key at <account>/chain/index. chain is
// ChangeExternal or ChangeInternal; both steps are non-hardened.
func (m *Manager) DeriveSecret(name string, chain, index uint32) (*HDKey, error) {
	if err := checkLeaf(chain, index); err != nil {
		return nil, err
	}

	var out *HDKey
	err := m.withAccount(name, func(acct accountKeys) error {
		if acct.priv == nil {
			return fmt.Errorf("account %q: %w", name, ErrWatchOnly)
		}
		leaf, err := deriveLeaf(acct.priv, chain, index)
		if err != nil {
			return fmt.Errorf("account %q: %w", name, err)
		}
		out = leaf
		if e := m.log.Debug(); e.Enabled() {
			e.Str("account", name).Uint32("chain", chain).Uint32("index", index).
				Str("key_id", leaf.ID()).Msg("derived secret")
		}
		return nil
	})
	return out, err
}

// DerivePublicKey returns the public key at <account>/chain/index. It only
// needs the account public key, so it works for watch-only accounts.
func (m *Manager) DerivePublicKey(name string, chain, index uint32) (*HDKey, error) {
	if err := checkLeaf(chain, index); err != nil {
		return nil, err
	}

	var out *HDKey
	err := m.withAccount(name, func(acct accountKeys) error {
		leaf, err := deriveLeaf(acct.pub, chain, index)
		if err != nil {
			return fmt.Errorf("account %q: %w", name, err)
		}
		out = leaf
		m.log.Debug().Str("account", name).Uint32("chain", chain).Uint32("index", index).
			Str("key_id", leaf.ID()).Msg("derived public key")
		return nil
	})
	return out, err
}

func checkLeaf(chain, index uint32) error {
	if chain != ChangeExternal && chain != ChangeInternal {
		return fmt.Errorf("%w: %d", ErrInvalidChain, chain)
	}
	if index >= HardenedOffset {
		return fmt.Errorf("%w: index %d is in the hardened range", ErrMalformedPath, index)
	}
	return nil
}

func deriveLeaf(account *HDKey, chain, index uint32) (*HDKey, error) {
	chainKey, err := account.DeriveChild(chain)
	if err != nil {
		return nil, err
	}
	defer chainKey.Zero()
	return chainKey.DeriveChild(index)
}

// AccountKeys returns copies of the cached keys of name. priv is nil for
// watch-only accounts.
func (m *Manager) AccountKeys(name string) (priv, pub *HDKey, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[name]
	if !ok {
		return nil, nil, false
	}
	if acct.priv != nil {
		priv = acct.priv.Clone()
	}
	return priv, acct.pub.Clone(), true
}

// Accounts returns the names of cached accounts, sorted.
func (m *Manager) Accounts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.accounts))
	for name := range m.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
