package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
	loadSql "github.com/siherrmann/sagagraph/sql"
)

// TimelineDBHandlerFunctions defines the interface for Timeline database operations.
type TimelineDBHandlerFunctions interface {
	InsertTimelineEvent(event *model.TimelineEvent) error
	SelectTimelineEventsByEntity(entityID int64) ([]*model.TimelineEvent, error)
	DeleteTimelineEvent(id int64) error
}

// TimelineDBHandler handles timeline-event-related database operations
type TimelineDBHandler struct {
	db *helper.Database
}

// NewTimelineDBHandler creates a new timeline database handler.
// It initializes the database connection and loads timeline-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewTimelineDBHandler(db *helper.Database, force bool) (*TimelineDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	timelineDbHandler := &TimelineDBHandler{
		db: db,
	}

	err := loadSql.LoadTimelineSql(timelineDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load timeline sql", err)
	}

	err = timelineDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TimelineDBHandler")

	return timelineDbHandler, nil
}

// CreateTable creates the 'timeline_events' table in the database.
// If the table already exists, it does not create it again.
func (h *TimelineDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_timeline_events();`)
	if err != nil {
		log.Panicf("error initializing timeline_events table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table timeline_events")

	return nil
}

// InsertTimelineEvent inserts a new timeline event
func (h *TimelineDBHandler) InsertTimelineEvent(event *model.TimelineEvent) error {
	err := event.Validate()
	if err != nil {
		return helper.NewError("validate timeline event", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_timeline_event($1, $2, $3, $4, $5)`,
		event.EntityID,
		event.Title,
		event.Description,
		event.Sequence,
		event.Metadata,
	)

	err = row.Scan(
		&event.ID,
		&event.EntityID,
		&event.Title,
		&event.Description,
		&event.Sequence,
		&event.Metadata,
		&event.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectTimelineEventsByEntity retrieves the timeline events of an entity
// ordered by sequence
func (h *TimelineDBHandler) SelectTimelineEventsByEntity(entityID int64) ([]*model.TimelineEvent, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_timeline_events_by_entity($1)`,
		entityID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var events []*model.TimelineEvent
	for rows.Next() {
		event := &model.TimelineEvent{}
		err := rows.Scan(
			&event.ID,
			&event.EntityID,
			&event.Title,
			&event.Description,
			&event.Sequence,
			&event.Metadata,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		events = append(events, event)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return events, nil
}

// DeleteTimelineEvent deletes a timeline event by ID
func (h *TimelineDBHandler) DeleteTimelineEvent(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_timeline_event($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
