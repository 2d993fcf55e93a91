package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
	loadSql "github.com/siherrmann/sagagraph/sql"
)

// FragmentsDBHandlerFunctions defines the interface for Fragments database operations.
type FragmentsDBHandlerFunctions interface {
	InsertFragment(fragment *model.ContentFragment) error
	SelectFragment(id int64) (*model.ContentFragment, error)
	SelectFragmentsByEntity(entityID int64) ([]*model.ContentFragment, error)
	SelectFragmentsWithEmbedding(limit int) ([]*model.ContentFragment, error)
	SelectFragmentsWithoutEmbedding(limit int) ([]*model.ContentFragment, error)
	UpdateFragmentEmbedding(fragment *model.ContentFragment) error
	UpdateFragmentEmbeddings(fragments []*model.ContentFragment) error
	DeleteFragment(id int64) error
}

// FragmentsDBHandler handles content-fragment-related database operations
type FragmentsDBHandler struct {
	db *helper.Database
}

// NewFragmentsDBHandler creates a new fragments database handler.
// It initializes the database connection and loads fragment-related SQL functions.
// The embedding dimension is fixed per deployment at table creation.
// If force is true, it will reload the SQL functions even if they already exist.
func NewFragmentsDBHandler(db *helper.Database, embeddingDim int, force bool) (*FragmentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	fragmentsDbHandler := &FragmentsDBHandler{
		db: db,
	}

	err := loadSql.LoadFragmentsSql(fragmentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load fragments sql", err)
	}

	err = fragmentsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized FragmentsDBHandler")

	return fragmentsDbHandler, nil
}

// CreateTable creates the 'content_fragments' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *FragmentsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_fragments($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing content_fragments table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table content_fragments")

	return nil
}

// InsertFragment inserts a new fragment, with or without embedding
func (h *FragmentsDBHandler) InsertFragment(fragment *model.ContentFragment) error {
	err := fragment.Validate()
	if err != nil {
		return helper.NewError("validate fragment", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_fragment($1, $2, $3, $4)`,
		fragment.EntityID,
		fragment.Content,
		fragment.TokenCount,
		embeddingParam(fragment.Embedding),
	)

	err = scanFragment(row, fragment)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectFragment retrieves a fragment by ID
func (h *FragmentsDBHandler) SelectFragment(id int64) (*model.ContentFragment, error) {
	fragment := &model.ContentFragment{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_fragment($1)`,
		id,
	)

	err := scanFragment(row, fragment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select fragment", fmt.Errorf("fragment %d: %w", id, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return fragment, nil
}

// SelectFragmentsByEntity retrieves all fragments of an entity ordered by ID
func (h *FragmentsDBHandler) SelectFragmentsByEntity(entityID int64) ([]*model.ContentFragment, error) {
	return h.selectFragments(`SELECT * FROM select_fragments_by_entity($1)`, entityID)
}

// SelectFragmentsWithEmbedding retrieves up to limit embedded fragments ordered by ID.
// It bounds the candidate scan of the semantic search engine.
func (h *FragmentsDBHandler) SelectFragmentsWithEmbedding(limit int) ([]*model.ContentFragment, error) {
	return h.selectFragments(`SELECT * FROM select_fragments_with_embedding($1)`, limit)
}

// SelectFragmentsWithoutEmbedding retrieves up to limit fragments missing an
// embedding, ordered by ID. It feeds the bulk embedding backfill.
func (h *FragmentsDBHandler) SelectFragmentsWithoutEmbedding(limit int) ([]*model.ContentFragment, error) {
	return h.selectFragments(`SELECT * FROM select_fragments_without_embedding($1)`, limit)
}

// UpdateFragmentEmbedding updates the embedding of a single fragment
func (h *FragmentsDBHandler) UpdateFragmentEmbedding(fragment *model.ContentFragment) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_fragment_embedding($1, $2)`,
		fragment.ID,
		embeddingParam(fragment.Embedding),
	)

	err := scanFragment(row, fragment)
	if errors.Is(err, sql.ErrNoRows) {
		return helper.NewError("update fragment embedding", fmt.Errorf("fragment %d: %w", fragment.ID, model.ErrNotFound))
	}
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// UpdateFragmentEmbeddings updates the embeddings of many fragments in one transaction
func (h *FragmentsDBHandler) UpdateFragmentEmbeddings(fragments []*model.ContentFragment) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for _, fragment := range fragments {
		row := tx.QueryRow(
			`SELECT * FROM update_fragment_embedding($1, $2)`,
			fragment.ID,
			embeddingParam(fragment.Embedding),
		)

		err = scanFragment(row, fragment)
		if errors.Is(err, sql.ErrNoRows) {
			return helper.NewError("update fragment embeddings", fmt.Errorf("fragment %d: %w", fragment.ID, model.ErrNotFound))
		}
		if err != nil {
			return helper.NewError("scan", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// DeleteFragment deletes a fragment by ID
func (h *FragmentsDBHandler) DeleteFragment(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_fragment($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func (h *FragmentsDBHandler) selectFragments(query string, arg any) ([]*model.ContentFragment, error) {
	rows, err := h.db.Instance.Query(query, arg)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var fragments []*model.ContentFragment
	for rows.Next() {
		fragment := &model.ContentFragment{}
		var embedding nullVector
		err := rows.Scan(
			&fragment.ID,
			&fragment.RID,
			&fragment.EntityID,
			&fragment.Content,
			&fragment.TokenCount,
			&embedding,
			&fragment.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if embedding.Valid {
			fragment.Embedding = embedding.Vector.Slice()
		}

		fragments = append(fragments, fragment)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return fragments, nil
}

func scanFragment(row *sql.Row, fragment *model.ContentFragment) error {
	var embedding nullVector
	err := row.Scan(
		&fragment.ID,
		&fragment.RID,
		&fragment.EntityID,
		&fragment.Content,
		&fragment.TokenCount,
		&embedding,
		&fragment.CreatedAt,
	)
	if err != nil {
		return err
	}
	if embedding.Valid {
		fragment.Embedding = embedding.Vector.Slice()
	} else {
		fragment.Embedding = nil
	}
	return nil
}

// embeddingParam converts a float32 slice to a nullable pgvector parameter
func embeddingParam(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

// nullVector scans a nullable pgvector column
type nullVector struct {
	Vector pgvector.Vector
	Valid  bool
}

func (v *nullVector) Scan(src any) error {
	if src == nil {
		v.Valid = false
		return nil
	}
	v.Valid = true
	return v.Vector.Scan(src)
}
