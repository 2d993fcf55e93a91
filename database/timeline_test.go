package database

import (
	"testing"

	"github.com/siherrmann/sagagraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineNewTimelineDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewTimelineDBHandler", func(t *testing.T) {
		_, err := NewSagasDBHandler(database, true)
		require.NoError(t, err, "Expected NewSagasDBHandler to not return an error")
		_, err = NewEntitiesDBHandler(database, true)
		require.NoError(t, err, "Expected NewEntitiesDBHandler to not return an error")

		timelineDbHandler, err := NewTimelineDBHandler(database, true)
		assert.NoError(t, err, "Expected NewTimelineDBHandler to not return an error")
		require.NotNil(t, timelineDbHandler, "Expected NewTimelineDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewTimelineDBHandler with nil database", func(t *testing.T) {
		_, err := NewTimelineDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating TimelineDBHandler with nil database")
	})
}

func TestTimelineInsertAndSelect(t *testing.T) {
	database := initDB(t)

	sagasDbHandler, err := NewSagasDBHandler(database, true)
	require.NoError(t, err, "Expected NewSagasDBHandler to not return an error")
	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err, "Expected NewEntitiesDBHandler to not return an error")
	timelineDbHandler, err := NewTimelineDBHandler(database, true)
	require.NoError(t, err, "Expected NewTimelineDBHandler to not return an error")

	saga := createTestSaga(t, sagasDbHandler)
	entity := createTestEntity(t, entitiesDbHandler, saga.ID, "timeline-entity")

	t.Run("Insert valid timeline event", func(t *testing.T) {
		event := &model.TimelineEvent{
			EntityID:    entity.ID,
			Title:       "Coronation",
			Description: "Crowned in the ruins of the old capital",
			Sequence:    1,
			Metadata:    map[string]interface{}{"era": "third age"},
		}
		err := timelineDbHandler.InsertTimelineEvent(event)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.Greater(t, event.ID, int64(0), "Expected event ID to be set")
	})

	t.Run("Insert timeline event with empty title", func(t *testing.T) {
		event := &model.TimelineEvent{
			EntityID: entity.ID,
			Sequence: 2,
		}
		err := timelineDbHandler.InsertTimelineEvent(event)
		assert.ErrorIs(t, err, model.ErrValidation, "Expected validation error for empty title")
	})

	t.Run("Select timeline events ordered by sequence", func(t *testing.T) {
		later := &model.TimelineEvent{EntityID: entity.ID, Title: "Abdication", Sequence: 5}
		require.NoError(t, timelineDbHandler.InsertTimelineEvent(later))
		earlier := &model.TimelineEvent{EntityID: entity.ID, Title: "Exile", Sequence: 3}
		require.NoError(t, timelineDbHandler.InsertTimelineEvent(earlier))

		events, err := timelineDbHandler.SelectTimelineEventsByEntity(entity.ID)
		assert.NoError(t, err, "Expected Select to not return an error")
		require.Len(t, events, 3, "Expected all events of the entity")
		assert.Equal(t, "Coronation", events[0].Title, "Expected sequence order")
		assert.Equal(t, "Exile", events[1].Title, "Expected sequence order")
		assert.Equal(t, "Abdication", events[2].Title, "Expected sequence order")
	})
}

func TestTimelineDelete(t *testing.T) {
	database := initDB(t)

	sagasDbHandler, err := NewSagasDBHandler(database, true)
	require.NoError(t, err, "Expected NewSagasDBHandler to not return an error")
	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err, "Expected NewEntitiesDBHandler to not return an error")
	timelineDbHandler, err := NewTimelineDBHandler(database, true)
	require.NoError(t, err, "Expected NewTimelineDBHandler to not return an error")

	saga := createTestSaga(t, sagasDbHandler)
	entity := createTestEntity(t, entitiesDbHandler, saga.ID, "timeline-delete-entity")

	event := &model.TimelineEvent{EntityID: entity.ID, Title: "Forgotten battle", Sequence: 1}
	require.NoError(t, timelineDbHandler.InsertTimelineEvent(event))

	t.Run("Delete timeline event", func(t *testing.T) {
		err := timelineDbHandler.DeleteTimelineEvent(event.ID)
		assert.NoError(t, err, "Expected Delete to not return an error")

		events, err := timelineDbHandler.SelectTimelineEventsByEntity(entity.ID)
		assert.NoError(t, err, "Expected Select to not return an error")
		assert.Empty(t, events, "Expected event to be gone after delete")
	})
}
