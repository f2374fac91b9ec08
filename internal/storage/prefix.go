package storage

// PrefixDB is a key namespace inside another DB. Every key it reads or
// writes is stored as prefix+key, and iteration never leaves the namespace.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB returns the namespace prefix inside inner.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: cloneBytes(prefix)}
}

// Sub returns a namespace nested under this one.
func (p *PrefixDB) Sub(prefix []byte) *PrefixDB {
	return &PrefixDB{inner: p.inner, prefix: p.key(prefix)}
}

// Prefix returns a copy of the full namespace prefix.
func (p *PrefixDB) Prefix() []byte {
	return cloneBytes(p.prefix)
}

func (p *PrefixDB) key(k []byte) []byte {
	return append(cloneBytes(p.prefix), k...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) { return p.inner.Get(p.key(key)) }

func (p *PrefixDB) Put(key, value []byte) error { return p.inner.Put(p.key(key), value) }

func (p *PrefixDB) Delete(key []byte) error { return p.inner.Delete(p.key(key)) }

func (p *PrefixDB) Has(key []byte) (bool, error) { return p.inner.Has(p.key(key)) }

// ForEach visits the keys under prefix within the namespace. Keys are
// passed to fn relative to the namespace.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(p.key(prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Close does nothing. The inner DB is owned by the caller.
func (p *PrefixDB) Close() error { return nil }
