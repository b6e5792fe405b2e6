package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator generates request ids from a prefix and a counter.
//
// The same scenario with a fresh SequenceGenerator produces the same
// request ids, which keeps audit logs comparable across runs.
//
// Implements engine.RequestIDGenerator.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator returns a generator yielding "<prefix>-0001",
// "<prefix>-0002", ... An empty prefix defaults to "req".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
