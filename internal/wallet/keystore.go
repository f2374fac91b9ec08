package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	walletFileVersion = 1
	walletFileExt     = ".wallet"
)

// walletFile is the on-disk JSON format of a FileStore wallet.
type walletFile struct {
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Seed         []byte    `json:"seed,omitempty"` // seed record, see seedSealer
	MasterPubKey string    `json:"master_pubkey,omitempty"`

	Accounts map[string]AccountRecord `json:"accounts,omitempty"`
}

// FileStore keeps one wallet in <dir>/<name>.wallet.
type FileStore struct {
	path   string
	sealer seedSealer
}

// NewFileStore returns a store for the named wallet file in dir.
// The directory is created if it doesn't exist.
func NewFileStore(dir, name string, password []byte, params EncryptionParams) (*FileStore, error) {
	if !ValidWalletName(name) {
		return nil, fmt.Errorf("invalid wallet name %q", name)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &FileStore{
		path:   filepath.Join(dir, name+walletFileExt),
		sealer: seedSealer{wallet: name, password: password, params: params},
	}, nil
}

// Path returns the wallet file path.
func (fs *FileStore) Path() string {
	return fs.path
}

// WriteSeed persists the seed record, replacing any previous one.
func (fs *FileStore) WriteSeed(seed []byte) error {
	rec, err := fs.sealer.encode(seed)
	if err != nil {
		return err
	}
	defer clear(rec)
	return fs.update(func(wf *walletFile) {
		wf.Seed = rec
	})
}

// ReadSeed returns the stored seed, or ErrNotFound.
func (fs *FileStore) ReadSeed() ([]byte, error) {
	wf, err := fs.readFile()
	if err != nil {
		return nil, err
	}
	defer clear(wf.Seed)
	if len(wf.Seed) == 0 {
		return nil, ErrNotFound
	}
	return fs.sealer.decode(wf.Seed)
}

// WriteMasterPublicKey persists the watch-only master public key.
func (fs *FileStore) WriteMasterPublicKey(xpub string) error {
	return fs.update(func(wf *walletFile) {
		wf.MasterPubKey = xpub
	})
}

// ReadMasterPublicKey returns the stored watch-only key, or ErrNotFound.
func (fs *FileStore) ReadMasterPublicKey() (string, error) {
	wf, err := fs.readFile()
	if err != nil {
		return "", err
	}
	clear(wf.Seed)
	if wf.MasterPubKey == "" {
		return "", ErrNotFound
	}
	return wf.MasterPubKey, nil
}

// WriteAccount persists rec under its name.
func (fs *FileStore) WriteAccount(rec AccountRecord) error {
	return fs.update(func(wf *walletFile) {
		if wf.Accounts == nil {
			wf.Accounts = make(map[string]AccountRecord)
		}
		wf.Accounts[rec.Name] = rec
	})
}

// ReadAccounts returns the stored account records, sorted by name.
func (fs *FileStore) ReadAccounts() ([]AccountRecord, error) {
	wf, err := fs.readFile()
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	clear(wf.Seed)
	recs := make([]AccountRecord, 0, len(wf.Accounts))
	for _, rec := range wf.Accounts {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs, nil
}

// update applies fn to the wallet file, creating it if needed.
func (fs *FileStore) update(fn func(*walletFile)) error {
	wf, err := fs.readFile()
	if errors.Is(err, ErrNotFound) {
		wf = &walletFile{Version: walletFileVersion, CreatedAt: time.Now().UTC()}
	} else if err != nil {
		return err
	}
	fn(wf)
	wf.UpdatedAt = time.Now().UTC()
	err = fs.writeFile(wf)
	clear(wf.Seed)
	return err
}

// writeFile replaces the wallet file atomically via a temp file and rename.
func (fs *FileStore) writeFile(wf *walletFile) error {
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	defer clear(data)

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

func (fs *FileStore) readFile() (*walletFile, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	defer clear(data)

	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if wf.Version != walletFileVersion {
		return nil, fmt.Errorf("unsupported wallet version: %d", wf.Version)
	}
	return &wf, nil
}

// ListWalletFiles returns the names of all wallet files in dir, sorted.
func ListWalletFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == walletFileExt {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	sort.Strings(names)
	return names, nil
}
