// Package objhash provides a content hash used to key memoization tables
// across the compiler: the template-instantiation cache in internal/sema and
// the class-struct memoization cache in internal/irtypes.
package objhash

import (
	"crypto/sha512"
	"encoding/binary"
)

// Hash is a 32-byte content hash.
type Hash [32]byte

// String hashes a string.
func String(s string) Hash {
	return Bytes([]byte(s))
}

// Bytes hashes a byte slice.
func Bytes(b []byte) Hash {
	return sha512.Sum512_256(b)
}

// Uint64 hashes a uint64, e.g. an AST node id or a symbol.ID.
func Uint64(v uint64) Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return Bytes(buf[:])
}

// Add combines two hashes commutatively: Add(a, b) == Add(b, a). Used when
// the combination order of a set of hashes does not matter, e.g. hashing the
// unordered set of instance variables of a class.
func (h Hash) Add(other Hash) Hash {
	var sum Hash
	for i := range sum {
		sum[i] = h[i] ^ other[i]
	}
	return sum
}

// Merge combines two hashes order-sensitively: Merge(a, b) != Merge(b, a) in
// general. Used to build a stable key out of an ordered sequence of hashes,
// e.g. a function's template substitution tuple.
func (h Hash) Merge(other Hash) Hash {
	buf := make([]byte, 0, len(h)+len(other))
	buf = append(buf, h[:]...)
	buf = append(buf, other[:]...)
	return Bytes(buf)
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}
