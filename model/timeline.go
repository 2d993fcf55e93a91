package model

import (
	"fmt"
	"time"
)

// TimelineEvent is an in-world event on an entity's timeline
type TimelineEvent struct {
	ID          int64     `json:"id"`
	EntityID    int64     `json:"entity_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Sequence    int       `json:"sequence"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the timeline event fields before persistence
func (e *TimelineEvent) Validate() error {
	if e.EntityID <= 0 {
		return fmt.Errorf("%w: entity id must be positive, got %d", ErrValidation, e.EntityID)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: timeline event title is empty", ErrValidation)
	}
	return nil
}
