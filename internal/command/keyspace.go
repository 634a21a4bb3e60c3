package command

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lojhan/hashchain/internal/store"
)

type Table = store.ChainedHashTable[string, string]

// Keyspace serializes access to the table shared by all connections.
type Keyspace struct {
	mu    sync.Mutex
	table *Table
}

func NewKeyspace(logger *zap.Logger) *Keyspace {
	return &Keyspace{
		table: store.NewStringTable(store.WithLogger[string](logger)),
	}
}

// Do runs fn with exclusive access to the table. fn must not keep the table
// past its return. Snapshots taken inside fn may be read afterwards, but
// removing through their iterators needs the lock.
func (ks *Keyspace) Do(fn func(t *Table)) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	fn(ks.table)
}
