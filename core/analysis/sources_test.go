package analysis

import (
	"fmt"

	"github.com/siherrmann/sagagraph/model"
)

// fakeStore is an in-memory implementation of all analysis sources used
// by the unit tests. Errors can be injected per method.
type fakeStore struct {
	entities      map[int64]*model.Entity
	relationships map[int64][]*model.Relationship
	fragments     map[int64][]*model.ContentFragment
	timeline      map[int64][]*model.TimelineEvent
	metrics       map[int64]*model.QualityMetrics
	workSet       []int64

	entityErr    error
	relationErr  error
	fragmentErr  error
	timelineErr  error
	upsertErr    error
	selectionErr error

	upsertCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entities:      map[int64]*model.Entity{},
		relationships: map[int64][]*model.Relationship{},
		fragments:     map[int64][]*model.ContentFragment{},
		timeline:      map[int64][]*model.TimelineEvent{},
		metrics:       map[int64]*model.QualityMetrics{},
	}
}

func (f *fakeStore) addEntity(id int64) {
	f.entities[id] = &model.Entity{ID: id, SagaID: 1, Type: model.EntityTypeCharacter, Name: fmt.Sprintf("Entity %d", id), Slug: fmt.Sprintf("entity-%d", id)}
}

func (f *fakeStore) addRelationship(sourceID, targetID int64, relType string) {
	f.relationships[sourceID] = append(f.relationships[sourceID], &model.Relationship{
		ID:       int64(len(f.relationships[sourceID]) + 1),
		SourceID: sourceID,
		TargetID: targetID,
		Type:     relType,
		Strength: 0.5,
	})
}

func (f *fakeStore) addFragment(entityID int64, embedding []float32) {
	f.fragments[entityID] = append(f.fragments[entityID], &model.ContentFragment{
		ID:        int64(len(f.fragments[entityID]) + 1),
		EntityID:  entityID,
		Content:   "fragment content",
		Embedding: embedding,
	})
}

func (f *fakeStore) addTimelineEvent(entityID int64) {
	f.timeline[entityID] = append(f.timeline[entityID], &model.TimelineEvent{
		ID:       int64(len(f.timeline[entityID]) + 1),
		EntityID: entityID,
		Title:    "event",
		Sequence: len(f.timeline[entityID]) + 1,
	})
}

func (f *fakeStore) SelectEntity(id int64) (*model.Entity, error) {
	if f.entityErr != nil {
		return nil, f.entityErr
	}
	entity, ok := f.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, model.ErrNotFound)
	}
	return entity, nil
}

func (f *fakeStore) EntityExists(id int64) (bool, error) {
	if f.entityErr != nil {
		return false, f.entityErr
	}
	_, ok := f.entities[id]
	return ok, nil
}

func (f *fakeStore) SelectRelationshipsBySource(sourceID int64) ([]*model.Relationship, error) {
	if f.relationErr != nil {
		return nil, f.relationErr
	}
	return f.relationships[sourceID], nil
}

func (f *fakeStore) SelectFragmentsByEntity(entityID int64) ([]*model.ContentFragment, error) {
	if f.fragmentErr != nil {
		return nil, f.fragmentErr
	}
	return f.fragments[entityID], nil
}

func (f *fakeStore) SelectTimelineEventsByEntity(entityID int64) ([]*model.TimelineEvent, error) {
	if f.timelineErr != nil {
		return nil, f.timelineErr
	}
	return f.timeline[entityID], nil
}

func (f *fakeStore) UpsertQualityMetrics(metrics *model.QualityMetrics) error {
	f.upsertCalls++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.metrics[metrics.EntityID] = metrics
	return nil
}

func (f *fakeStore) SelectEntitiesNeedingVerification(sagaID int64, stalenessSeconds int64, limit int) ([]int64, error) {
	if f.selectionErr != nil {
		return nil, f.selectionErr
	}
	if limit < len(f.workSet) {
		return f.workSet[:limit], nil
	}
	return f.workSet, nil
}
