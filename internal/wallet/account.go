package wallet

// State is the lifecycle state of a Manager.
type State int

const (
	StateNoSeed State = iota
	StateSeedOnly
	StateSeedWithAccounts
	StateWatchOnly
)

func (s State) String() string {
	switch s {
	case StateNoSeed:
		return "no-seed"
	case StateSeedOnly:
		return "seed-only"
	case StateSeedWithAccounts:
		return "seed-with-accounts"
	case StateWatchOnly:
		return "watch-only"
	default:
		return "unknown"
	}
}

// accountKeys is a cache entry. pub is always priv.Neuter() when priv is
// set; watch-only entries have priv == nil.
type accountKeys struct {
	priv *HDKey
	pub  *HDKey
}

func (a accountKeys) wipe() {
	a.priv.Zero()
	a.pub.Zero()
}

// material is the wallet's master key material: exactly one of noMaterial,
// seedMaterial or watchOnlyMaterial.
type material interface {
	isMaterial()
}

type noMaterial struct{}

type seedMaterial struct {
	seed *Seed
}

type watchOnlyMaterial struct {
	xpub *HDKey
}

func (noMaterial) isMaterial()        {}
func (seedMaterial) isMaterial()      {}
func (watchOnlyMaterial) isMaterial() {}
