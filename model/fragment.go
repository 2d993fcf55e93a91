package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContentFragment is a unit of free text attached to an entity.
// Embedding is nil until the fragment has been embedded; the stored values
// are the raw vector elements, the binary format contract lives on Vector.
type ContentFragment struct {
	ID         int64     `json:"id"`
	RID        uuid.UUID `json:"rid"`
	EntityID   int64     `json:"entity_id"`
	Content    string    `json:"content"`
	TokenCount *int      `json:"token_count,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the fragment fields before persistence
func (f *ContentFragment) Validate() error {
	if f.EntityID <= 0 {
		return fmt.Errorf("%w: entity id must be positive, got %d", ErrValidation, f.EntityID)
	}
	if f.Content == "" {
		return fmt.Errorf("%w: fragment content is empty", ErrValidation)
	}
	if f.TokenCount != nil && *f.TokenCount < 0 {
		return fmt.Errorf("%w: token count must not be negative", ErrValidation)
	}
	return nil
}

// HasEmbedding reports whether the fragment carries an embedding
func (f *ContentFragment) HasEmbedding() bool {
	return len(f.Embedding) > 0
}

// EmbeddingVector returns the stored embedding as a validated Vector.
// It returns ErrInvalidVector for fragments without a usable embedding.
func (f *ContentFragment) EmbeddingVector() (Vector, error) {
	return NewVector(f.Embedding)
}
