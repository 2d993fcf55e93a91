package model

import (
	"fmt"
	"time"
)

// EntityType is the closed set of node types within a saga
type EntityType string

const (
	EntityTypeCharacter EntityType = "character"
	EntityTypeLocation  EntityType = "location"
	EntityTypeEvent     EntityType = "event"
	EntityTypeFaction   EntityType = "faction"
	EntityTypeArtifact  EntityType = "artifact"
	EntityTypeConcept   EntityType = "concept"
)

// Valid reports whether the entity type is one of the closed set
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeCharacter, EntityTypeLocation, EntityTypeEvent,
		EntityTypeFaction, EntityTypeArtifact, EntityTypeConcept:
		return true
	}
	return false
}

// Entity represents a typed node within a saga
type Entity struct {
	ID            int64      `json:"id"`
	SagaID        int64      `json:"saga_id"`
	Type          EntityType `json:"entity_type"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Importance    int        `json:"importance"`
	EmbeddingHash *string    `json:"embedding_hash,omitempty"`
	Metadata      Metadata   `json:"metadata,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Validate checks the entity fields before persistence
func (e *Entity) Validate() error {
	if e.SagaID <= 0 {
		return fmt.Errorf("%w: saga id must be positive, got %d", ErrValidation, e.SagaID)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", ErrValidation, e.Type)
	}
	if e.Name == "" {
		return fmt.Errorf("%w: entity name is empty", ErrValidation)
	}
	if e.Slug == "" {
		return fmt.Errorf("%w: entity slug is empty", ErrValidation)
	}
	if e.Importance < 0 || e.Importance > 100 {
		return fmt.Errorf("%w: importance %d out of range [0,100]", ErrValidation, e.Importance)
	}
	return nil
}
