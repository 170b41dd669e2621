package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Connection errors
	ErrConnectionNotFound = errors.New("connection not found")
)
