// Package symbol interns symbol literals (":foo", ":+", ":<=", ...) as
// small integers, per spec.md section 3.5's 64-bit interned "symbol"
// builtin type.
package symbol

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// ID is an interned symbol. The zero value, Invalid, never names a real
// symbol.
type ID int64

// Invalid is the sentinel ID returned for lookups that fail.
const Invalid = ID(0)

type table struct {
	mu    sync.RWMutex
	names []string       // ID -> name, index 0 unused (Invalid)
	ids   map[string]ID  // name -> ID
	hash  map[ID]uint64  // ID -> fast hash, for map-bucket placement elsewhere
}

var symbols = newTable()

func newTable() *table {
	return &table{
		names: []string{""},
		ids:   map[string]ID{},
		hash:  map[ID]uint64{},
	}
}

// Intern finds or creates the ID for the given symbol name (without the
// leading ':'). Interning is idempotent: the same name always yields the
// same ID within a process.
func Intern(name string) ID {
	symbols.mu.RLock()
	if id, ok := symbols.ids[name]; ok {
		symbols.mu.RUnlock()
		return id
	}
	symbols.mu.RUnlock()

	symbols.mu.Lock()
	defer symbols.mu.Unlock()
	if id, ok := symbols.ids[name]; ok {
		return id
	}
	id := ID(len(symbols.names))
	symbols.names = append(symbols.names, name)
	symbols.ids[name] = id
	symbols.hash[id] = murmur3.Sum64([]byte(name))
	return id
}

// Str returns the name of an interned symbol. It panics if id was never
// interned, matching the fail-fast style of the rest of the pipeline's
// internal lookups.
func (id ID) Str() string {
	symbols.mu.RLock()
	defer symbols.mu.RUnlock()
	if int(id) <= 0 || int(id) >= len(symbols.names) {
		panic("symbol: use of uninterned id")
	}
	return symbols.names[id]
}

// FastHash returns a cheap, non-cryptographic hash of the symbol, suitable
// for hash-table bucket placement (e.g. keying the instantiation cache
// alongside a substitution hash).
func (id ID) FastHash() uint64 {
	symbols.mu.RLock()
	defer symbols.mu.RUnlock()
	return symbols.hash[id]
}

// Valid reports whether id refers to an interned symbol.
func (id ID) Valid() bool {
	return id != Invalid
}
