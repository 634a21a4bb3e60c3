package store

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

type Entry[K, V any] struct {
	Key   K
	Value V
}

func (e Entry[K, V]) String() string {
	return fmt.Sprintf("%v=%v", e.Key, e.Value)
}

// EntrySet is a point-in-time copy of a table's entries. Later changes to the
// table do not show up in it; removing through an Iterator deletes from both
// the snapshot and the table.
type EntrySet[K, V any] struct {
	table   *ChainedHashTable[K, V]
	entries []Entry[K, V]
}

func (t *ChainedHashTable[K, V]) Entries() *EntrySet[K, V] {
	entries := make([]Entry[K, V], 0, t.numKeys)
	t.Range(func(key K, value V) bool {
		entries = append(entries, Entry[K, V]{Key: key, Value: value})
		return true
	})
	return &EntrySet[K, V]{table: t, entries: entries}
}

func (s *EntrySet[K, V]) Len() int {
	return len(s.entries)
}

func (s *EntrySet[K, V]) At(i int) Entry[K, V] {
	return s.entries[i]
}

func (s *EntrySet[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range s.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

func (s *EntrySet[K, V]) Iterator() *Iterator[K, V] {
	return &Iterator[K, V]{set: s, last: -1}
}

func (s *EntrySet[K, V]) String() string {
	parts := make([]string, len(s.entries))
	for i, e := range s.entries {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RemoveAt deletes the i-th entry from the snapshot and its key from the
// owning table. Later entries shift down by one.
func (s *EntrySet[K, V]) RemoveAt(i int) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, i, len(s.entries))
	}
	if _, _, err := s.table.Remove(s.entries[i].Key); err != nil {
		return err
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return nil
}

// Iterator walks an EntrySet by position. Only one iterator per snapshot
// should remove entries at a time.
type Iterator[K, V any] struct {
	set  *EntrySet[K, V]
	next int
	last int // index of the last entry returned by Next, -1 if none
}

func (it *Iterator[K, V]) HasNext() bool {
	return it.next < len(it.set.entries)
}

func (it *Iterator[K, V]) Next() (Entry[K, V], error) {
	if !it.HasNext() {
		return Entry[K, V]{}, ErrIteratorExhausted
	}
	it.last = it.next
	it.next++
	return it.set.entries[it.last], nil
}

// Remove deletes the entry last returned by Next from the snapshot and from
// the owning table.
func (it *Iterator[K, V]) Remove() error {
	if it.last < 0 {
		return fmt.Errorf("%w: remove without a preceding next", ErrIllegalIteratorState)
	}
	if err := it.set.RemoveAt(it.last); err != nil {
		return err
	}
	it.next = it.last
	it.last = -1
	return nil
}

// KeySet is the key projection of an EntrySet.
type KeySet[K, V any] struct {
	set *EntrySet[K, V]
}

func (t *ChainedHashTable[K, V]) Keys() *KeySet[K, V] {
	return &KeySet[K, V]{set: t.Entries()}
}

func (s *KeySet[K, V]) Len() int {
	return s.set.Len()
}

func (s *KeySet[K, V]) At(i int) K {
	return s.set.entries[i].Key
}

func (s *KeySet[K, V]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, e := range s.set.entries {
			if !yield(e.Key) {
				return
			}
		}
	}
}

func (s *KeySet[K, V]) RemoveAt(i int) error {
	return s.set.RemoveAt(i)
}

func (s *KeySet[K, V]) Iterator() *KeyIterator[K, V] {
	return &KeyIterator[K, V]{it: s.set.Iterator()}
}

func (s *KeySet[K, V]) String() string {
	parts := make([]string, len(s.set.entries))
	for i, e := range s.set.entries {
		parts[i] = fmt.Sprint(e.Key)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type KeyIterator[K, V any] struct {
	it *Iterator[K, V]
}

func (it *KeyIterator[K, V]) HasNext() bool {
	return it.it.HasNext()
}

func (it *KeyIterator[K, V]) Next() (K, error) {
	e, err := it.it.Next()
	return e.Key, err
}

func (it *KeyIterator[K, V]) Remove() error {
	return it.it.Remove()
}
