package analysis

import (
	"github.com/siherrmann/sagagraph/model"
)

// EntitySource provides entity lookups for analysis.
// It is satisfied by database.EntitiesDBHandler.
type EntitySource interface {
	SelectEntity(id int64) (*model.Entity, error)
	EntityExists(id int64) (bool, error)
}

// RelationshipSource provides relationship lookups for analysis.
// It is satisfied by database.RelationshipsDBHandler.
type RelationshipSource interface {
	SelectRelationshipsBySource(sourceID int64) ([]*model.Relationship, error)
}

// FragmentSource provides fragment lookups for analysis.
// It is satisfied by database.FragmentsDBHandler.
type FragmentSource interface {
	SelectFragmentsByEntity(entityID int64) ([]*model.ContentFragment, error)
}

// TimelineSource provides timeline lookups for analysis.
// It is satisfied by database.TimelineDBHandler.
type TimelineSource interface {
	SelectTimelineEventsByEntity(entityID int64) ([]*model.TimelineEvent, error)
}

// MetricsStore persists analysis results and selects recompute work sets.
// It is satisfied by database.MetricsDBHandler.
type MetricsStore interface {
	UpsertQualityMetrics(metrics *model.QualityMetrics) error
	SelectEntitiesNeedingVerification(sagaID int64, stalenessSeconds int64, limit int) ([]int64, error)
}
