package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Saga is a top-level fictional universe namespace containing entities
type Saga struct {
	ID          int64     `json:"id"`
	RID         uuid.UUID `json:"rid"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the saga fields before persistence
func (s *Saga) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: saga name is empty", ErrValidation)
	}
	if s.Slug == "" {
		return fmt.Errorf("%w: saga slug is empty", ErrValidation)
	}
	return nil
}
