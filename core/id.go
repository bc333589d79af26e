package core

import "github.com/google/uuid"

// NewID returns a random identifier used for run ids and synthetic call ids.
func NewID() string { return uuid.NewString() }
