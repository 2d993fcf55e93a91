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

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(entity *model.Entity) error
	SelectEntity(id int64) (*model.Entity, error)
	EntityExists(id int64) (bool, error)
	SelectEntitiesBySaga(sagaID int64, limit int) ([]*model.Entity, error)
	UpdateEntityEmbeddingHash(id int64, embeddingHash string) error
	DeleteEntity(id int64) error
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// InsertEntity inserts a new entity (or updates if the saga/slug pair exists)
func (h *EntitiesDBHandler) InsertEntity(entity *model.Entity) error {
	err := entity.Validate()
	if err != nil {
		return helper.NewError("validate entity", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_entity($1, $2, $3, $4, $5, $6)`,
		entity.SagaID,
		entity.Type,
		entity.Name,
		entity.Slug,
		entity.Importance,
		entity.Metadata,
	)

	err = scanEntity(row, entity)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEntity retrieves an entity by ID
func (h *EntitiesDBHandler) SelectEntity(id int64) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity($1)`,
		id,
	)

	err := scanEntity(row, entity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select entity", fmt.Errorf("entity %d: %w", id, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// EntityExists reports whether an entity with the given ID exists.
// It backs the orphan check of the graph analyzer.
func (h *EntitiesDBHandler) EntityExists(id int64) (bool, error) {
	var exists bool
	err := h.db.Instance.QueryRow(
		`SELECT entity_exists($1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, helper.NewError("scan", err)
	}
	return exists, nil
}

// SelectEntitiesBySaga retrieves entities of a saga ordered by ID
func (h *EntitiesDBHandler) SelectEntitiesBySaga(sagaID int64, limit int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_saga($1, $2)`,
		sagaID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := rows.Scan(
			&entity.ID,
			&entity.SagaID,
			&entity.Type,
			&entity.Name,
			&entity.Slug,
			&entity.Importance,
			&entity.EmbeddingHash,
			&entity.Metadata,
			&entity.CreatedAt,
			&entity.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// UpdateEntityEmbeddingHash updates the embedding hash of an entity
func (h *EntitiesDBHandler) UpdateEntityEmbeddingHash(id int64, embeddingHash string) error {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_entity_embedding_hash($1, $2)`,
		id,
		embeddingHash,
	)

	err := scanEntity(row, entity)
	if errors.Is(err, sql.ErrNoRows) {
		return helper.NewError("update entity embedding hash", fmt.Errorf("entity %d: %w", id, model.ErrNotFound))
	}
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteEntity deletes an entity by ID.
// Relationships targeting the entity are kept, see the orphan check.
func (h *EntitiesDBHandler) DeleteEntity(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanEntity(row *sql.Row, entity *model.Entity) error {
	return row.Scan(
		&entity.ID,
		&entity.SagaID,
		&entity.Type,
		&entity.Name,
		&entity.Slug,
		&entity.Importance,
		&entity.EmbeddingHash,
		&entity.Metadata,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
}
