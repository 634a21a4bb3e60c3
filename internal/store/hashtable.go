package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

const (
	InitialCapacity = 101
	// LoadThreshold is the average chain length that triggers a rehash.
	LoadThreshold = 3.0
)

// Map is the read-only surface shared by associative containers that a
// ChainedHashTable can be compared with or copied from.
type Map[K, V any] interface {
	Len() int
	Get(key K) (V, bool, error)
	Range(fn func(key K, value V) bool)
}

type entry[K, V any] struct {
	key   K
	value V
	hash  uint64
}

// chain holds the entries of one slot, most recently inserted first. A nil
// chain is an empty slot.
type chain[K, V any] []*entry[K, V]

func (c chain[K, V]) find(h Hasher[K], key K, hash uint64) int {
	for i, e := range c {
		if e.hash == hash && h.Equal(e.key, key) {
			return i
		}
	}
	return -1
}

// ChainedHashTable is a hash table resolving collisions by separate chaining.
// It grows to 2N+1 slots once the key count exceeds LoadThreshold*N.
//
// A ChainedHashTable is not safe for concurrent use; callers sharing one
// across goroutines must serialize access themselves.
type ChainedHashTable[K, V any] struct {
	hasher  Hasher[K]
	buckets []chain[K, V]
	numKeys int
	cfg     config[V]
}

func NewChainedHashTable[K, V any](hasher Hasher[K], opts ...Option[V]) *ChainedHashTable[K, V] {
	return &ChainedHashTable[K, V]{
		hasher:  hasher,
		buckets: make([]chain[K, V], InitialCapacity),
		cfg:     newConfig(opts),
	}
}

func NewStringTable[V any](opts ...Option[V]) *ChainedHashTable[string, V] {
	return NewChainedHashTable[string, V](StringHasher{}, opts...)
}

func NewComparableTable[K comparable, V any](opts ...Option[V]) *ChainedHashTable[K, V] {
	return NewChainedHashTable[K, V](NewComparableHasher[K](), opts...)
}

func (t *ChainedHashTable[K, V]) hash(key K) (uint64, error) {
	h, err := t.hasher.Hash(key)
	if err != nil {
		if errors.Is(err, ErrInvalidKey) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return h, nil
}

func index(hash uint64, n int) int {
	return int(hash % uint64(n))
}

func (t *ChainedHashTable[K, V]) lookup(key K, hash uint64) *entry[K, V] {
	c := t.buckets[index(hash, len(t.buckets))]
	if i := c.find(t.hasher, key, hash); i >= 0 {
		return c[i]
	}
	return nil
}

// insert prepends e to its chain in buckets without checking for duplicates.
func insert[K, V any](buckets []chain[K, V], e *entry[K, V]) {
	i := index(e.hash, len(buckets))
	buckets[i] = slices.Insert(buckets[i], 0, e)
}

func (t *ChainedHashTable[K, V]) Get(key K) (V, bool, error) {
	var zero V
	h, err := t.hash(key)
	if err != nil {
		return zero, false, err
	}
	if e := t.lookup(key, h); e != nil {
		return e.value, true, nil
	}
	return zero, false, nil
}

// Put associates value with key. If the key was present its value is
// replaced in place and the previous value is returned with replaced set.
func (t *ChainedHashTable[K, V]) Put(key K, value V) (prev V, replaced bool, err error) {
	h, err := t.hash(key)
	if err != nil {
		return prev, false, err
	}
	if e := t.lookup(key, h); e != nil {
		prev, e.value = e.value, value
		return prev, true, nil
	}

	insert(t.buckets, &entry[K, V]{key: key, value: value, hash: h})
	t.numKeys++
	if float64(t.numKeys) > LoadThreshold*float64(len(t.buckets)) {
		t.rehash()
	}
	return prev, false, nil
}

// rehash moves every entry into a fresh array of 2N+1 slots, walking old
// slots in order and each chain front to back. The old array is left as is
// until the swap.
func (t *ChainedHashTable[K, V]) rehash() {
	old := t.buckets
	buckets := make([]chain[K, V], 2*len(old)+1)
	n := 0
	for _, c := range old {
		for _, e := range c {
			insert(buckets, e)
			n++
		}
	}
	t.buckets, t.numKeys = buckets, n

	t.cfg.logger.Debug("rehashed table",
		zap.Int("old_capacity", len(old)),
		zap.Int("capacity", len(buckets)),
		zap.Int("keys", n))
}

func (t *ChainedHashTable[K, V]) Remove(key K) (V, bool, error) {
	var zero V
	h, err := t.hash(key)
	if err != nil {
		return zero, false, err
	}
	i := index(h, len(t.buckets))
	c := t.buckets[i]
	j := c.find(t.hasher, key, h)
	if j < 0 {
		return zero, false, nil
	}

	removed := c[j].value
	c = slices.Delete(c, j, j+1)
	if len(c) == 0 {
		c = nil
	}
	t.buckets[i] = c
	t.numKeys--
	return removed, true, nil
}

// Clear drops every entry and shrinks the table back to InitialCapacity.
func (t *ChainedHashTable[K, V]) Clear() {
	t.numKeys = 0
	t.buckets = make([]chain[K, V], InitialCapacity)
}

func (t *ChainedHashTable[K, V]) Len() int {
	return t.numKeys
}

func (t *ChainedHashTable[K, V]) IsEmpty() bool {
	return t.Len() == 0
}

// Capacity returns the current number of slots.
func (t *ChainedHashTable[K, V]) Capacity() int {
	return len(t.buckets)
}

// ContainsKey reports whether key is present. A key stored with the zero
// value of V is present.
func (t *ChainedHashTable[K, V]) ContainsKey(key K) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

func (t *ChainedHashTable[K, V]) ContainsValue(value V) bool {
	for _, c := range t.buckets {
		for _, e := range c {
			if t.cfg.valueEqual(e.value, value) {
				return true
			}
		}
	}
	return false
}

// Range calls fn for each entry in slot order until fn returns false. The
// table must not be modified from fn.
func (t *ChainedHashTable[K, V]) Range(fn func(key K, value V) bool) {
	for _, c := range t.buckets {
		for _, e := range c {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}

// PutAll copies every association of src into t. It stops at the first key
// t rejects.
func (t *ChainedHashTable[K, V]) PutAll(src Map[K, V]) error {
	var err error
	src.Range(func(key K, value V) bool {
		_, _, err = t.Put(key, value)
		return err == nil
	})
	return err
}

func (t *ChainedHashTable[K, V]) Values() []V {
	values := make([]V, 0, t.numKeys)
	t.Range(func(_ K, value V) bool {
		values = append(values, value)
		return true
	})
	return values
}

// Equal reports whether other holds exactly the same key/value associations,
// regardless of how either side lays them out.
func (t *ChainedHashTable[K, V]) Equal(other Map[K, V]) bool {
	if other == nil || t.Len() != other.Len() {
		return false
	}
	equal := true
	t.Range(func(key K, value V) bool {
		v, ok, err := other.Get(key)
		equal = err == nil && ok && t.cfg.valueEqual(value, v)
		return equal
	})
	return equal
}

// HashCode folds hash(key) ^ hash(value) over all entries with XOR, so it
// does not depend on layout. Tables that are Equal and share a key hasher
// produce the same code.
func (t *ChainedHashTable[K, V]) HashCode() uint64 {
	var code uint64
	for _, c := range t.buckets {
		for _, e := range c {
			code ^= e.hash ^ t.cfg.valueHash(e.value)
		}
	}
	return code
}

func (t *ChainedHashTable[K, V]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	t.Range(func(key K, value V) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%v=%v", key, value)
		return true
	})
	b.WriteByte('}')
	return b.String()
}
