package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile reads a klingnet-hd.conf file into a key/value map. Lines are
// "key = value"; blank lines and lines starting with # are skipped, and a
// value may be wrapped in single or double quotes. A missing file yields an
// empty map.
func LoadFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values := map[string]string{}
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key = value", n)
		}
		values[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return values, nil
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// ApplyFileConfig sets cfg fields from file values. Keys this build does not
// know are ignored so one file can serve several versions.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		set, ok := fileKeys[key]
		if !ok {
			continue
		}
		if err := set(cfg, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

var fileKeys = map[string]func(*Config, string) error{
	"network": func(c *Config, v string) error {
		c.Network = NetworkType(strings.ToLower(v))
		return nil
	},
	"datadir": func(c *Config, v string) error { c.DataDir = v; return nil },

	"wallet":      func(c *Config, v string) error { c.Wallet.Name = v; return nil },
	"wallet.name": func(c *Config, v string) error { c.Wallet.Name = v; return nil },
	"wallet.backend": func(c *Config, v string) error {
		c.Wallet.Backend = Backend(strings.ToLower(v))
		return nil
	},
	"wallet.rootpath": func(c *Config, v string) error { c.Wallet.RootPath = v; return nil },
	"wallet.seedsize": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Wallet.SeedSize = n
		return err
	},
	"wallet.prefix": func(c *Config, v string) error { c.Wallet.SeedPrefix = v; return nil },
	"wallet.encrypt": func(c *Config, v string) (err error) {
		c.Wallet.Encrypt, err = parseBool(v)
		return err
	},
	"wallet.argon2.memory": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		c.Wallet.Argon2Memory = uint32(n)
		return err
	},
	"wallet.argon2.iterations": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		c.Wallet.Argon2Iterations = uint32(n)
		return err
	},
	"wallet.argon2.parallelism": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 8)
		c.Wallet.Argon2Parallelism = uint8(n)
		return err
	},

	"log.level": func(c *Config, v string) error { c.Log.Level = v; return nil },
	"log.file":  func(c *Config, v string) error { c.Log.File = v; return nil },
	"log.json": func(c *Config, v string) (err error) {
		c.Log.JSON, err = parseBool(v)
		return err
	},
}

// parseBool accepts yes/no and on/off on top of strconv.ParseBool.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# Klingnet HD Key Manager Configuration

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.klingnet)
# datadir = ~/.klingnet

# ============================================================================
# Wallet
# ============================================================================

wallet.name = default

# Storage backend: badger, file or memory
wallet.backend = badger

# Account root path used when an account is first touched
# (mainnet: m/44'/8888'/0', testnet: m/44'/1'/0')
# wallet.rootpath = ` + Default(network).Wallet.RootPath + `

# Seed family. Changing these makes existing seeds unreadable.
# wallet.seedsize = 32
# wallet.prefix = 01

# Seal the stored seed with a password (Argon2id + XChaCha20-Poly1305)
wallet.encrypt = true
# wallet.argon2.memory = 65536
# wallet.argon2.iterations = 3
# wallet.argon2.parallelism = 4

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
