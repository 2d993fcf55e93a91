package model

import (
	"fmt"
	"time"
)

// Relationship is a directed, typed edge between two entities.
// The target is deliberately not guaranteed to exist: entity deletions are
// not cascaded into relationships, which is what the orphan check in the
// graph analyzer looks for.
type Relationship struct {
	ID        int64      `json:"id"`
	SourceID  int64      `json:"source_id"`
	TargetID  int64      `json:"target_id"`
	Type      string     `json:"relationship_type"`
	Strength  float64    `json:"strength"`
	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`
	Metadata  Metadata   `json:"metadata,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate checks the relationship fields before persistence
func (r *Relationship) Validate() error {
	if r.SourceID <= 0 {
		return fmt.Errorf("%w: source id must be positive, got %d", ErrValidation, r.SourceID)
	}
	if r.TargetID <= 0 {
		return fmt.Errorf("%w: target id must be positive, got %d", ErrValidation, r.TargetID)
	}
	if r.Type == "" {
		return fmt.Errorf("%w: relationship type is empty", ErrValidation)
	}
	if r.Strength < 0 || r.Strength > 1 {
		return fmt.Errorf("%w: strength %f out of range [0,1]", ErrValidation, r.Strength)
	}
	if r.ValidFrom != nil && r.ValidTo != nil && r.ValidTo.Before(*r.ValidFrom) {
		return fmt.Errorf("%w: validity interval ends before it starts", ErrValidation)
	}
	return nil
}
