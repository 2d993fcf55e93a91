package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
	loadSql "github.com/siherrmann/sagagraph/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for Relationships database operations.
type RelationshipsDBHandlerFunctions interface {
	InsertRelationship(relationship *model.Relationship) error
	SelectRelationship(id int64) (*model.Relationship, error)
	SelectRelationshipsBySource(sourceID int64) ([]*model.Relationship, error)
	SelectRelationshipsByTarget(targetID int64) ([]*model.Relationship, error)
	DeleteRelationship(id int64) error
}

// RelationshipsDBHandler handles relationship-related database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// It initializes the database connection and loads relationship-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the 'relationships' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *RelationshipsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relationships();`)
	if err != nil {
		log.Panicf("error initializing relationships table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relationships")

	return nil
}

// InsertRelationship inserts a new relationship.
// The target entity is not checked for existence, see the orphan check.
func (h *RelationshipsDBHandler) InsertRelationship(relationship *model.Relationship) error {
	err := relationship.Validate()
	if err != nil {
		return helper.NewError("validate relationship", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_relationship($1, $2, $3, $4, $5, $6, $7)`,
		relationship.SourceID,
		relationship.TargetID,
		relationship.Type,
		relationship.Strength,
		relationship.ValidFrom,
		relationship.ValidTo,
		relationship.Metadata,
	)

	err = scanRelationship(row, relationship)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationship retrieves a relationship by ID
func (h *RelationshipsDBHandler) SelectRelationship(id int64) (*model.Relationship, error) {
	relationship := &model.Relationship{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_relationship($1)`,
		id,
	)

	err := scanRelationship(row, relationship)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select relationship", fmt.Errorf("relationship %d: %w", id, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return relationship, nil
}

// SelectRelationshipsBySource retrieves the outgoing relationships of an entity.
// The order is stable (ascending ID) across calls within one analysis run.
func (h *RelationshipsDBHandler) SelectRelationshipsBySource(sourceID int64) ([]*model.Relationship, error) {
	return h.selectRelationships(`SELECT * FROM select_relationships_by_source($1)`, sourceID)
}

// SelectRelationshipsByTarget retrieves the incoming relationships of an entity
func (h *RelationshipsDBHandler) SelectRelationshipsByTarget(targetID int64) ([]*model.Relationship, error) {
	return h.selectRelationships(`SELECT * FROM select_relationships_by_target($1)`, targetID)
}

// DeleteRelationship deletes a relationship by ID
func (h *RelationshipsDBHandler) DeleteRelationship(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_relationship($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func (h *RelationshipsDBHandler) selectRelationships(query string, entityID int64) ([]*model.Relationship, error) {
	rows, err := h.db.Instance.Query(query, entityID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var relationships []*model.Relationship
	for rows.Next() {
		relationship := &model.Relationship{}
		err := rows.Scan(
			&relationship.ID,
			&relationship.SourceID,
			&relationship.TargetID,
			&relationship.Type,
			&relationship.Strength,
			&relationship.ValidFrom,
			&relationship.ValidTo,
			&relationship.Metadata,
			&relationship.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relationships = append(relationships, relationship)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}

func scanRelationship(row *sql.Row, relationship *model.Relationship) error {
	return row.Scan(
		&relationship.ID,
		&relationship.SourceID,
		&relationship.TargetID,
		&relationship.Type,
		&relationship.Strength,
		&relationship.ValidFrom,
		&relationship.ValidTo,
		&relationship.Metadata,
		&relationship.CreatedAt,
	)
}
