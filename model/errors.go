package model

import "errors"

// Sentinel errors for the core error taxonomy.
// Callers check them with errors.Is after unwrapping helper.NewError context.
var (
	// ErrValidation marks malformed input (non-positive ids, out-of-range scores).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a hard lookup for an absent entity, fragment or relationship.
	ErrNotFound = errors.New("not found")
	// ErrInvalidVector marks a vector that is empty, non-finite or has a malformed binary encoding.
	ErrInvalidVector = errors.New("invalid vector")
	// ErrDimensionMismatch marks similarity math between vectors of different dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingService marks a failure of the embedding generation collaborator.
	ErrEmbeddingService = errors.New("embedding service failure")
)
