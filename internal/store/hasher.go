package store

import (
	"bytes"
	"fmt"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// Hasher supplies the hash function and equivalence relation for keys of
// type K. Equal keys must hash identically, and Hash must be stable for the
// lifetime of a table.
type Hasher[K any] interface {
	Hash(key K) (uint64, error)
	Equal(a, b K) bool
}

type StringHasher struct{}

func (StringHasher) Hash(key string) (uint64, error) { return xxhash.Sum64String(key), nil }
func (StringHasher) Equal(a, b string) bool          { return a == b }

// BytesHasher hashes byte slices by content. Callers must not mutate a slice
// after using it as a key.
type BytesHasher struct{}

func (BytesHasher) Hash(key []byte) (uint64, error) { return xxhash.Sum64(key), nil }
func (BytesHasher) Equal(a, b []byte) bool          { return bytes.Equal(a, b) }

// comparableSeed is shared by every ComparableHasher so equal tables hash
// alike for the life of the process.
var comparableSeed = maphash.MakeSeed()

// ComparableHasher hashes any comparable key with maphash under the
// process-wide seed. Interface keys holding an unhashable dynamic value are
// rejected with ErrInvalidKey. The zero value has no seed; use
// NewComparableHasher.
//
// Equality is Go's ==, so a floating-point NaN key never equals itself: each
// Put(NaN) adds a new entry and Get(NaN) always misses.
type ComparableHasher[K comparable] struct {
	seed maphash.Seed
}

func NewComparableHasher[K comparable]() ComparableHasher[K] {
	return ComparableHasher[K]{seed: comparableSeed}
}

func (h ComparableHasher[K]) Hash(key K) (sum uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidKey, r)
		}
	}()
	return maphash.Comparable(h.seed, key), nil
}

func (ComparableHasher[K]) Equal(a, b K) bool { return a == b }

// HasherFunc adapts a pair of functions to the Hasher interface.
type HasherFunc[K any] struct {
	HashFunc  func(K) (uint64, error)
	EqualFunc func(a, b K) bool
}

func (f HasherFunc[K]) Hash(key K) (uint64, error) { return f.HashFunc(key) }
func (f HasherFunc[K]) Equal(a, b K) bool          { return f.EqualFunc(a, b) }

// defaultValueHash renders the value with %v and hashes the text. Values that
// are equal under the table's value equality should render identically; use
// WithValueHasher when that does not hold (pointers, for example).
func defaultValueHash[V any](v V) uint64 {
	d := xxhash.New()
	fmt.Fprintf(d, "%v", v)
	return d.Sum64()
}
