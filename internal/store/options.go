package store

import (
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

type config[V any] struct {
	logger     *zap.Logger
	valueEqual func(a, b V) bool
	valueHash  func(v V) uint64
}

type Option[V any] func(*config[V])

// WithLogger sets the logger used for rehash events.
func WithLogger[V any](logger *zap.Logger) Option[V] {
	return func(c *config[V]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValueEqual sets the equality used by ContainsValue and Equal. The
// default is cmp.Equal, which panics on structs with unexported fields.
func WithValueEqual[V any](eq func(a, b V) bool) Option[V] {
	return func(c *config[V]) {
		if eq != nil {
			c.valueEqual = eq
		}
	}
}

// WithValueHasher sets the value hash mixed into HashCode.
func WithValueHasher[V any](h func(v V) uint64) Option[V] {
	return func(c *config[V]) {
		if h != nil {
			c.valueHash = h
		}
	}
}

func newConfig[V any](opts []Option[V]) config[V] {
	c := config[V]{
		logger:     zap.NewNop(),
		valueEqual: func(a, b V) bool { return cmp.Equal(a, b) },
		valueHash:  defaultValueHash[V],
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
