package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestEntrySetSnapshot(t *testing.T) {
	ht := NewStringTable[int]()
	mustPut(t, ht, "a", 1)
	mustPut(t, ht, "b", 2)

	set := ht.Entries()
	if set.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", set.Len())
	}

	mustPut(t, ht, "c", 3)
	mustPut(t, ht, "a", 100)
	ht.Remove("b")

	if set.Len() != 2 {
		t.Errorf("Expected snapshot to keep 2 entries, got %d", set.Len())
	}
	got := map[string]int{}
	for k, v := range set.All() {
		got[k] = v
	}
	if len(got) != 2 || got["a"] != 1 || got["b"] != 2 {
		t.Errorf("Expected snapshot {a=1 b=2}, got %v", got)
	}
}

func TestEntrySetStableOrder(t *testing.T) {
	ht := NewStringTable[int]()
	for i := 0; i < 50; i++ {
		mustPut(t, ht, fmt.Sprintf("key-%d", i), i)
	}

	set := ht.Entries()
	first := make([]string, 0, set.Len())
	for k := range set.All() {
		first = append(first, k)
	}
	for i := 0; i < set.Len(); i++ {
		if set.At(i).Key != first[i] {
			t.Fatalf("Expected position %d to be %s, got %s", i, first[i], set.At(i).Key)
		}
	}
}

func TestIteratorRemoveUpdatesTable(t *testing.T) {
	ht := NewStringTable[int]()
	for i := 0; i < 10; i++ {
		mustPut(t, ht, fmt.Sprintf("key-%d", i), i)
	}

	set := ht.Entries()
	it := set.Iterator()
	seen := 0
	for it.HasNext() {
		e, err := it.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		seen++
		if e.Value%2 == 0 {
			if err := it.Remove(); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
		}
	}

	if seen != 10 {
		t.Errorf("Expected to visit 10 entries, visited %d", seen)
	}
	if ht.Len() != 5 || set.Len() != 5 {
		t.Errorf("Expected 5 entries in table and snapshot, got %d and %d", ht.Len(), set.Len())
	}
	for i := 0; i < 10; i++ {
		_, ok := mustGet(t, ht, fmt.Sprintf("key-%d", i))
		if ok != (i%2 == 1) {
			t.Errorf("Unexpected presence of key-%d: %v", i, ok)
		}
	}
}

func TestIteratorErrors(t *testing.T) {
	ht := NewStringTable[int]()
	mustPut(t, ht, "a", 1)

	it := ht.Entries().Iterator()
	if err := it.Remove(); !errors.Is(err, ErrIllegalIteratorState) {
		t.Errorf("Expected ErrIllegalIteratorState before Next, got %v", err)
	}
	if ht.Len() != 1 {
		t.Fatalf("Expected no removal, got length %d", ht.Len())
	}

	if _, err := it.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if err := it.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := it.Remove(); !errors.Is(err, ErrIllegalIteratorState) {
		t.Errorf("Expected ErrIllegalIteratorState on second Remove, got %v", err)
	}

	if _, err := it.Next(); !errors.Is(err, ErrIteratorExhausted) {
		t.Errorf("Expected ErrIteratorExhausted, got %v", err)
	}
	if !ht.IsEmpty() {
		t.Errorf("Expected empty table, got length %d", ht.Len())
	}
}

func TestIteratorRemoveAfterTableRemoval(t *testing.T) {
	ht := NewStringTable[int]()
	mustPut(t, ht, "a", 1)
	mustPut(t, ht, "b", 2)

	set := ht.Entries()
	ht.Remove("a")

	it := set.Iterator()
	for it.HasNext() {
		if _, err := it.Next(); err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if err := it.Remove(); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
	}
	if set.Len() != 0 || ht.Len() != 0 {
		t.Errorf("Expected both empty, got snapshot %d table %d", set.Len(), ht.Len())
	}
}

func TestKeySet(t *testing.T) {
	ht := NewChainedHashTable[string, int](collidingHasher())
	mustPut(t, ht, "x", 1)
	mustPut(t, ht, "y", 2)

	keys := ht.Keys()
	if keys.String() != "[y, x]" {
		t.Errorf("Expected [y, x], got %s", keys.String())
	}
	if keys.Len() != 2 || keys.At(0) != "y" {
		t.Errorf("Unexpected key set %s", keys)
	}

	it := keys.Iterator()
	k, err := it.Next()
	if err != nil || k != "y" {
		t.Fatalf("Expected y, got %q (%v)", k, err)
	}
	if err := it.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ok, _ := ht.ContainsKey("y"); ok {
		t.Error("Expected y to be removed from the table")
	}

	var rest []string
	for k := range keys.All() {
		rest = append(rest, k)
	}
	if len(rest) != 1 || rest[0] != "x" {
		t.Errorf("Expected [x], got %v", rest)
	}

	if _, err := it.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if it.HasNext() {
		t.Error("Expected iterator to be exhausted")
	}
	if _, err := it.Next(); !errors.Is(err, ErrIteratorExhausted) {
		t.Errorf("Expected ErrIteratorExhausted, got %v", err)
	}
}

func TestEntrySetString(t *testing.T) {
	ht := NewStringTable[int]()
	if s := ht.Entries().String(); s != "[]" {
		t.Errorf("Expected [], got %s", s)
	}
	mustPut(t, ht, "a", 1)
	if s := ht.Entries().String(); s != "[a=1]" {
		t.Errorf("Expected [a=1], got %s", s)
	}
}

func TestEntrySetRemoveAt(t *testing.T) {
	ht := NewChainedHashTable[string, int](collidingHasher())
	for i, k := range []string{"x", "y", "z"} {
		mustPut(t, ht, k, i)
	}

	set := ht.Entries()
	if err := set.RemoveAt(1); err != nil {
		t.Fatalf("RemoveAt failed: %v", err)
	}
	if set.Len() != 2 || set.At(0).Key != "z" || set.At(1).Key != "x" {
		t.Errorf("Expected snapshot [z x], got %v", set)
	}
	if _, ok := mustGet(t, ht, "y"); ok || ht.Len() != 2 {
		t.Errorf("Expected y removed from the table, len %d", ht.Len())
	}

	for _, i := range []int{-1, 2} {
		if err := set.RemoveAt(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Expected ErrIndexOutOfRange for %d, got %v", i, err)
		}
	}
	if ht.Len() != 2 {
		t.Errorf("Expected failed removals to leave the table alone, len %d", ht.Len())
	}

	keys := ht.Keys()
	if err := keys.RemoveAt(0); err != nil {
		t.Fatalf("KeySet.RemoveAt failed: %v", err)
	}
	if keys.String() != "[x]" || ht.String() != "{x=0}" {
		t.Errorf("Expected only x left, got keys %s table %s", keys, ht)
	}
}
