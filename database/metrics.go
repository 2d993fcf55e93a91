package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
	loadSql "github.com/siherrmann/sagagraph/sql"
)

// MetricsDBHandlerFunctions defines the interface for QualityMetrics database operations.
type MetricsDBHandlerFunctions interface {
	UpsertQualityMetrics(metrics *model.QualityMetrics) error
	SelectQualityMetrics(entityID int64) (*model.QualityMetrics, error)
	SelectEntitiesNeedingVerification(sagaID int64, stalenessSeconds int64, limit int) ([]int64, error)
}

// MetricsDBHandler handles quality-metrics-related database operations
type MetricsDBHandler struct {
	db *helper.Database
}

// NewMetricsDBHandler creates a new quality metrics database handler.
// It initializes the database connection and loads metrics-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewMetricsDBHandler(db *helper.Database, force bool) (*MetricsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	metricsDbHandler := &MetricsDBHandler{
		db: db,
	}

	err := loadSql.LoadMetricsSql(metricsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load metrics sql", err)
	}

	err = metricsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MetricsDBHandler")

	return metricsDbHandler, nil
}

// CreateTable creates the 'quality_metrics' table in the database.
// If the table already exists, it does not create it again.
func (h *MetricsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_quality_metrics();`)
	if err != nil {
		log.Panicf("error initializing quality_metrics table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table quality_metrics")

	return nil
}

// UpsertQualityMetrics creates or overwrites the metrics row of an entity.
// Writers are serialized per entity id with an advisory transaction lock
// inside the SQL function, so concurrent recompute runs cannot interleave.
func (h *MetricsDBHandler) UpsertQualityMetrics(metrics *model.QualityMetrics) error {
	err := metrics.Validate()
	if err != nil {
		return helper.NewError("validate quality metrics", err)
	}

	var issues []string
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_quality_metrics($1, $2, $3, $4)`,
		metrics.EntityID,
		metrics.CompletenessScore,
		metrics.ConsistencyScore,
		pq.Array(model.IssueCodesToStrings(metrics.Issues)),
	)

	err = row.Scan(
		&metrics.EntityID,
		&metrics.CompletenessScore,
		&metrics.ConsistencyScore,
		pq.Array(&issues),
		&metrics.ComputedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	metrics.Issues = model.IssueCodesFromStrings(issues)

	return nil
}

// SelectQualityMetrics retrieves the metrics row of an entity
func (h *MetricsDBHandler) SelectQualityMetrics(entityID int64) (*model.QualityMetrics, error) {
	metrics := &model.QualityMetrics{}
	var issues []string
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_quality_metrics($1)`,
		entityID,
	)

	err := row.Scan(
		&metrics.EntityID,
		&metrics.CompletenessScore,
		&metrics.ConsistencyScore,
		pq.Array(&issues),
		&metrics.ComputedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select quality metrics", fmt.Errorf("metrics for entity %d: %w", entityID, model.ErrNotFound))
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	metrics.Issues = model.IssueCodesFromStrings(issues)

	return metrics, nil
}

// SelectEntitiesNeedingVerification retrieves the entity IDs of a saga whose
// metrics are absent or older than stalenessSeconds, oldest first, ties
// broken by ascending entity ID.
func (h *MetricsDBHandler) SelectEntitiesNeedingVerification(sagaID int64, stalenessSeconds int64, limit int) ([]int64, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_needing_verification($1, $2, $3)`,
		sagaID,
		stalenessSeconds,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entityIDs []int64
	for rows.Next() {
		var entityID int64
		err := rows.Scan(&entityID)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entityIDs = append(entityIDs, entityID)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entityIDs, nil
}
