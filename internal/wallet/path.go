package wallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DerivationStep is one child derivation. Index already includes
// HardenedOffset when Hardened is set.
type DerivationStep struct {
	Index    uint32
	Hardened bool
}

// DerivationPath is an ordered list of steps from a master key. The empty
// path denotes the master key itself.
type DerivationPath []DerivationStep

// ParsePath parses slash notation such as "m/44'/8888'/0'". A leading "m" is
// accepted only as the first component; "" and "m" are the empty path.
// Hardened components are marked with a trailing ' (or h/H). Every number
// must be below 2^31.
func ParsePath(s string) (DerivationPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DerivationPath{}, nil
	}

	tokens := strings.Split(s, "/")
	if tokens[0] == "m" {
		tokens = tokens[1:]
	}

	path := make(DerivationPath, 0, len(tokens))
	for i, tok := range tokens {
		step, err := parseStep(strings.TrimSpace(tok))
		if err != nil {
			return nil, fmt.Errorf("%w: %q component %d: %v", ErrMalformedPath, s, i, err)
		}
		path = append(path, step)
	}
	return path, nil
}

func parseStep(tok string) (DerivationStep, error) {
	var step DerivationStep
	if n := len(tok); n > 0 {
		switch tok[n-1] {
		case '\'', 'h', 'H':
			step.Hardened = true
			tok = tok[:n-1]
		}
	}
	if tok == "" {
		return step, fmt.Errorf("empty index")
	}
	// ParseUint rejects signs, so only plain decimal digits get through.
	n, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return step, fmt.Errorf("index %q is not a non-negative integer", tok)
	}
	if n >= uint64(HardenedOffset) {
		return step, fmt.Errorf("index %d out of range [0, %d]", n, HardenedOffset-1)
	}
	step.Index = uint32(n)
	if step.Hardened {
		step.Index += HardenedOffset
	}
	return step, nil
}

// String returns the canonical form, e.g. "m/44'/0'/0'".
func (p DerivationPath) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, step := range p {
		sb.WriteByte('/')
		if step.Hardened {
			sb.WriteString(strconv.FormatUint(uint64(step.Index-HardenedOffset), 10))
			sb.WriteByte('\'')
		} else {
			sb.WriteString(strconv.FormatUint(uint64(step.Index), 10))
		}
	}
	return sb.String()
}

// HasHardened reports whether any step needs a private key.
func (p DerivationPath) HasHardened() bool {
	for _, step := range p {
		if step.Hardened {
			return true
		}
	}
	return false
}

// Child returns a copy of p extended by one step.
func (p DerivationPath) Child(step DerivationStep) DerivationPath {
	out := make(DerivationPath, len(p), len(p)+1)
	copy(out, p)
	return append(out, step)
}

// ChildDeriver is the extended-key primitive the path walker needs. *HDKey
// implements it.
type ChildDeriver[K any] interface {
	DeriveChild(index uint32) (K, error)
	Neuter() K
	IsPrivate() bool
	Zero()
}

// DerivePrivate applies the steps of path to master, left to right. A failed
// step aborts the walk; the caller must pick another path.
func DerivePrivate[K ChildDeriver[K]](master K, path DerivationPath) (K, error) {
	if !master.IsPrivate() && path.HasHardened() {
		var none K
		return none, fmt.Errorf("derive %s: %w", path, ErrHardenedOnPublic)
	}
	return walk(master, path, false)
}

// DerivePublic walks path from the public form of master. Hardened steps are
// rejected before anything is derived.
func DerivePublic[K ChildDeriver[K]](master K, path DerivationPath) (K, error) {
	if path.HasHardened() {
		var none K
		return none, fmt.Errorf("derive %s: %w", path, ErrHardenedOnPublic)
	}
	if master.IsPrivate() {
		return walk(master.Neuter(), path, true)
	}
	return walk(master, path, false)
}

// walk derives along path from current. Intermediate keys are zeroed as soon
// as their child exists; current itself is zeroed only when owned.
func walk[K ChildDeriver[K]](current K, path DerivationPath, owned bool) (K, error) {
	for i, step := range path {
		child, err := current.DeriveChild(step.Index)
		if owned || i > 0 {
			current.Zero()
		}
		if err != nil {
			var none K
			if errors.Is(err, ErrHardenedOnPublic) || errors.Is(err, ErrDerivationFailed) {
				return none, fmt.Errorf("step %d of %s: %w", i, path, err)
			}
			return none, fmt.Errorf("step %d of %s: %w: %w", i, path, ErrDerivationFailed, err)
		}
		current = child
	}
	return current, nil
}
