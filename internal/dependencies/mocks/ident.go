package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/posrelay/internal/dependencies/ident"
)

// MockGenerator is a mock implementation of ident.Generator for testing.
// Safe for concurrent use, like the real generator.
type MockGenerator struct {
	mu sync.Mutex

	// Results is a queue of identifiers to return from NewClientID
	Results []string
	index   int

	// fallback counter for when the queue is exhausted
	generated int
}

// Ensure MockGenerator implements Generator
var _ ident.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a new MockGenerator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// NewClientID returns the next queued identifier, or a sequential
// "client-N" identifier if none remain
func (g *MockGenerator) NewClientID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.index < len(g.Results) {
		result := g.Results[g.index]
		g.index++
		return result
	}
	g.generated++
	return fmt.Sprintf("client-%d", g.generated)
}

// Queue adds identifiers to the result queue
func (g *MockGenerator) Queue(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Results = append(g.Results, ids...)
}

// Reset clears all queued identifiers
func (g *MockGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Results = nil
	g.index = 0
	g.generated = 0
}
