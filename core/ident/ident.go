// Package ident allocates the short human-facing booking codes.
package ident

import (
	"fmt"
	"sync/atomic"
)

// Allocator produces strictly increasing display identifiers. Implementations
// must be safe for concurrent use: series generation allocates many ids in a
// row and relies on the sequence having no gaps within one expansion.
type Allocator interface {
	NextDisplayID() string
}

// Counter is an Allocator backed by an atomic counter, formatted as CJ-###.
type Counter struct {
	last atomic.Int64
}

// NewCounter creates a Counter that will hand out ids starting after last.
// Pass 0 for a fresh system.
func NewCounter(last int64) *Counter {
	c := &Counter{}
	c.last.Store(last)
	return c
}

// NextDisplayID returns the next id in the sequence.
func (c *Counter) NextDisplayID() string {
	return fmt.Sprintf("CJ-%03d", c.last.Add(1))
}
