package ident

import "github.com/google/uuid"

// Generator produces fresh connection identifiers. Identifiers are scoped to
// the lifetime of one connection and are never reused.
type Generator interface {
	NewClientID() string
}

// UUIDGenerator implements Generator using random UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewClientID returns a fresh random UUID string
func (g *UUIDGenerator) NewClientID() string {
	return uuid.NewString()
}
