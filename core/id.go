package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for messages, sessions and graph nodes.
func NewID() string { return uuid.NewString() }
