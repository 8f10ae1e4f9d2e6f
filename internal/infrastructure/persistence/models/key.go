package models

// KeyDescriptor describes how sync rows of one model type are identified.
// The descriptor is resolved at compile time next to each model rather than
// reflected from ORM metadata at runtime. A nil descriptor marks a keyless,
// append-only model.
type KeyDescriptor[T any] struct {
	// Column is the database column holding the sync key.
	Column string
	// Value reads the key from a row.
	Value func(*T) any
}
