package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Klingon-tech/klingnet-hd/internal/storage"
)

// Store persists the master material of one wallet and its account
// records. Absent records are reported as ErrNotFound. Implementations do
// not retry I/O.
type Store interface {
	WriteSeed(seed []byte) error
	ReadSeed() ([]byte, error)
	WriteMasterPublicKey(xpub string) error
	ReadMasterPublicKey() (string, error)

	// WriteAccount replaces the record stored under rec.Name.
	WriteAccount(rec AccountRecord) error
	// ReadAccounts returns every account record, sorted by name.
	ReadAccounts() ([]AccountRecord, error)
}

// AccountRecord describes an account across restarts. A derived account
// carries the path it is derived along, an imported one its extended public
// key. Account keys themselves are never stored.
type AccountRecord struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	XPub string `json:"xpub,omitempty"`
}

// Record keys inside a wallet namespace.
var (
	seedKey       = []byte("hd/seed")
	xpubKey       = []byte("hd/xpub")
	accountPrefix = []byte("hd/account/")
)

// walletNamespace is the DB prefix shared by all wallets.
const walletNamespace = "wallet/"

var walletNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ValidWalletName reports whether name can be used as a wallet identity.
func ValidWalletName(name string) bool {
	return walletNameRe.MatchString(name) && name != "." && name != ".."
}

// Seed record encodings.
const (
	recordPlain  byte = 0
	recordSealed byte = 1
)

// ErrPasswordRequired is returned when reading a sealed seed without a
// password.
var ErrPasswordRequired = errors.New("seed record is encrypted; password required")

// seedSealer encodes seed records, sealing them when a password is set.
type seedSealer struct {
	wallet   string
	password []byte
	params   EncryptionParams
}

func (s seedSealer) encode(seed []byte) ([]byte, error) {
	if len(s.password) == 0 {
		return append([]byte{recordPlain}, seed...), nil
	}
	sealed, err := Seal(seed, s.password, s.aad(), s.params)
	if err != nil {
		return nil, fmt.Errorf("seal seed: %w", err)
	}
	return append([]byte{recordSealed}, sealed...), nil
}

func (s seedSealer) decode(rec []byte) ([]byte, error) {
	if len(rec) == 0 {
		return nil, fmt.Errorf("empty seed record")
	}
	switch rec[0] {
	case recordPlain:
		out := make([]byte, len(rec)-1)
		copy(out, rec[1:])
		return out, nil
	case recordSealed:
		if len(s.password) == 0 {
			return nil, ErrPasswordRequired
		}
		seed, err := Open(rec[1:], s.password, s.aad())
		if err != nil {
			return nil, fmt.Errorf("open seed: %w", err)
		}
		return seed, nil
	default:
		return nil, fmt.Errorf("unknown seed record type %d", rec[0])
	}
}

// aad binds a sealed seed to its wallet name, so records cannot be swapped
// between wallets.
func (s seedSealer) aad() []byte {
	return []byte(walletNamespace + s.wallet)
}

// DBStore keeps wallet records in a storage.DB under "wallet/<name>/".
type DBStore struct {
	db       *storage.PrefixDB
	accounts *storage.PrefixDB
	sealer   seedSealer
}

// NewDBStore returns a store for the named wallet. With a non-empty password
// the seed record is sealed with Argon2id + XChaCha20-Poly1305.
func NewDBStore(db storage.DB, name string, password []byte, params EncryptionParams) (*DBStore, error) {
	if !ValidWalletName(name) {
		return nil, fmt.Errorf("invalid wallet name %q", name)
	}
	ns := storage.NewPrefixDB(db, []byte(walletNamespace)).Sub([]byte(name + "/"))
	return &DBStore{
		db:       ns,
		accounts: ns.Sub(accountPrefix),
		sealer:   seedSealer{wallet: name, password: password, params: params},
	}, nil
}

// WriteSeed persists the seed record, replacing any previous one.
func (s *DBStore) WriteSeed(seed []byte) error {
	rec, err := s.sealer.encode(seed)
	if err != nil {
		return err
	}
	defer clear(rec)
	if err := s.db.Put(seedKey, rec); err != nil {
		return fmt.Errorf("write seed: %w", err)
	}
	return nil
}

// ReadSeed returns the stored seed, or ErrNotFound.
func (s *DBStore) ReadSeed() ([]byte, error) {
	rec, err := s.db.Get(seedKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	defer clear(rec)
	return s.sealer.decode(rec)
}

// WriteMasterPublicKey persists the watch-only master public key.
func (s *DBStore) WriteMasterPublicKey(xpub string) error {
	if err := s.db.Put(xpubKey, []byte(xpub)); err != nil {
		return fmt.Errorf("write master public key: %w", err)
	}
	return nil
}

// ReadMasterPublicKey returns the stored watch-only key, or ErrNotFound.
func (s *DBStore) ReadMasterPublicKey() (string, error) {
	v, err := s.db.Get(xpubKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read master public key: %w", err)
	}
	return string(v), nil
}

// WriteAccount persists rec under its name.
func (s *DBStore) WriteAccount(rec AccountRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode account %q: %w", rec.Name, err)
	}
	if err := s.accounts.Put([]byte(rec.Name), data); err != nil {
		return fmt.Errorf("write account %q: %w", rec.Name, err)
	}
	return nil
}

// ReadAccounts returns the stored account records in key order.
func (s *DBStore) ReadAccounts() ([]AccountRecord, error) {
	var recs []AccountRecord
	err := s.accounts.ForEach(nil, func(key, value []byte) error {
		var rec AccountRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("account %q: %w", key, err)
		}
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	return recs, nil
}

// ListDBWallets returns the names of wallets with records in db, sorted.
func ListDBWallets(db storage.DB) ([]string, error) {
	seen := make(map[string]struct{})
	err := db.ForEach([]byte(walletNamespace), func(key, _ []byte) error {
		rest := strings.TrimPrefix(string(key), walletNamespace)
		if i := strings.IndexByte(rest, '/'); i > 0 {
			seen[rest[:i]] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
