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

// SagasDBHandlerFunctions defines the interface for Sagas database operations.
type SagasDBHandlerFunctions interface {
	InsertSaga(saga *model.Saga) error
	SelectSaga(id int64) (*model.Saga, error)
	SelectSagaBySlug(slug string) (*model.Saga, error)
	DeleteSaga(id int64) error
}

// SagasDBHandler handles saga-related database operations
type SagasDBHandler struct {
	db *helper.Database
}

// NewSagasDBHandler creates a new sagas database handler.
// It initializes the database connection and loads saga-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSagasDBHandler(db *helper.Database, force bool) (*SagasDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	sagasDbHandler := &SagasDBHandler{
		db: db,
	}

	err := loadSql.LoadSagasSql(sagasDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load sagas sql", err)
	}

	err = sagasDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SagasDBHandler")

	return sagasDbHandler, nil
}

// CreateTable creates the 'sagas' table in the database.
// If the table already exists, it does not create it again.
func (h *SagasDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_sagas();`)
	if err != nil {
		log.Panicf("error initializing sagas table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table sagas")

	return nil
}

// InsertSaga inserts a new saga
func (h *SagasDBHandler) InsertSaga(saga *model.Saga) error {
	err := saga.Validate()
	if err != nil {
		return helper.NewError("validate saga", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_saga($1, $2, $3, $4)`,
		saga.Name,
		saga.Slug,
		saga.Description,
		saga.Metadata,
	)

	err = scanSaga(row, saga)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectSaga retrieves a saga by ID
func (h *SagasDBHandler) SelectSaga(id int64) (*model.Saga, error) {
	saga := &model.Saga{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_saga($1)`,
		id,
	)

	err := scanSaga(row, saga)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select saga", fmt.Errorf("saga %d: %w", id, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return saga, nil
}

// SelectSagaBySlug retrieves a saga by slug
func (h *SagasDBHandler) SelectSagaBySlug(slug string) (*model.Saga, error) {
	saga := &model.Saga{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_saga_by_slug($1)`,
		slug,
	)

	err := scanSaga(row, saga)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select saga by slug", fmt.Errorf("saga %q: %w", slug, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return saga, nil
}

// DeleteSaga deletes a saga by ID
func (h *SagasDBHandler) DeleteSaga(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_saga($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanSaga(row *sql.Row, saga *model.Saga) error {
	return row.Scan(
		&saga.ID,
		&saga.RID,
		&saga.Name,
		&saga.Slug,
		&saga.Description,
		&saga.Metadata,
		&saga.CreatedAt,
		&saga.UpdatedAt,
	)
}
