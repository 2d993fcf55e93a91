package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
)

// DefaultStalenessSeconds is the age after which persisted metrics are
// considered stale and eligible for recomputation (7 days).
const DefaultStalenessSeconds int64 = 7 * 24 * 60 * 60

// RecomputeResult summarizes one recompute run.
// Processed counts every entity that was analyzed, successfully or not.
// Updated counts entities whose metrics row was written.
// Failed counts entities whose analysis or persistence failed.
// Entities that vanished between selection and analysis count in none.
type RecomputeResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}

// Aggregator runs both analyzers over a work set of entities and persists
// the combined metrics. Per-entity failures are isolated into the result
// counters and never abort the run.
type Aggregator struct {
	entities     EntitySource
	completeness *CompletenessAnalyzer
	consistency  *GraphAnalyzer
	metrics      MetricsStore
	logger       *slog.Logger

	// StalenessSeconds is the metrics age threshold for work set
	// selection. Defaults to DefaultStalenessSeconds.
	StalenessSeconds int64
}

// NewAggregator creates a new aggregator wiring both analyzers over the
// given sources
func NewAggregator(entities EntitySource, relationships RelationshipSource, fragments FragmentSource, timeline TimelineSource, metrics MetricsStore, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		entities:         entities,
		completeness:     NewCompletenessAnalyzer(fragments, relationships, timeline),
		consistency:      NewGraphAnalyzer(entities, relationships),
		metrics:          metrics,
		logger:           logger,
		StalenessSeconds: DefaultStalenessSeconds,
	}
}

// Recompute analyzes a work set of entities and upserts their metrics.
// With entityID set, the work set is exactly that entity. Otherwise it is
// up to limit entities of the saga whose metrics are absent or stale,
// oldest first. A cancelled context stops the run before the next entity;
// the partial result is still returned.
func (a *Aggregator) Recompute(ctx context.Context, sagaID int64, entityID *int64, limit int) (*RecomputeResult, error) {
	if sagaID <= 0 {
		return nil, helper.NewError("validate saga id", fmt.Errorf("%w: saga id must be positive, got %d", model.ErrValidation, sagaID))
	}

	var workSet []int64
	if entityID != nil {
		if *entityID <= 0 {
			return nil, helper.NewError("validate entity id", fmt.Errorf("%w: entity id must be positive, got %d", model.ErrValidation, *entityID))
		}
		workSet = []int64{*entityID}
	} else {
		if limit <= 0 {
			return nil, helper.NewError("validate limit", fmt.Errorf("%w: limit must be positive, got %d", model.ErrValidation, limit))
		}
		var err error
		workSet, err = a.metrics.SelectEntitiesNeedingVerification(sagaID, a.StalenessSeconds, limit)
		if err != nil {
			return nil, helper.NewError("select entities needing verification", err)
		}
	}

	result := &RecomputeResult{}
	for _, id := range workSet {
		if ctx.Err() != nil {
			a.logger.Warn("Recompute stopped early", "reason", ctx.Err(), "remaining", len(workSet)-result.Processed)
			break
		}

		exists, err := a.entities.EntityExists(id)
		if err != nil {
			result.Processed++
			result.Failed++
			a.logger.Warn("Failed to check entity", "entityId", id, "error", err)
			continue
		}
		if !exists {
			// Deleted since work set selection, skip silently.
			a.logger.Debug("Skipping vanished entity", "entityId", id)
			continue
		}

		result.Processed++

		metrics, err := a.analyzeEntity(ctx, id)
		if err != nil {
			result.Failed++
			a.logger.Warn("Failed to analyze entity", "entityId", id, "error", err)
			continue
		}

		err = a.metrics.UpsertQualityMetrics(metrics)
		if err != nil {
			result.Failed++
			a.logger.Warn("Failed to persist metrics", "entityId", id, "error", err)
			continue
		}

		result.Updated++
	}

	a.logger.Info("Recompute finished", "sagaId", sagaID, "processed", result.Processed, "updated", result.Updated, "failed", result.Failed)

	return result, nil
}

// analyzeEntity runs both analyzers for one entity and merges their
// issues, completeness issues first, deduplicated in first-seen order.
func (a *Aggregator) analyzeEntity(ctx context.Context, entityID int64) (*model.QualityMetrics, error) {
	completenessScore, completenessIssues, err := a.completeness.AnalyzeCompleteness(ctx, entityID)
	if err != nil {
		return nil, helper.NewError("analyze completeness", err)
	}

	consistencyScore, consistencyIssues, err := a.consistency.AnalyzeConsistency(ctx, entityID)
	if err != nil {
		return nil, helper.NewError("analyze consistency", err)
	}

	return &model.QualityMetrics{
		EntityID:          entityID,
		CompletenessScore: completenessScore,
		ConsistencyScore:  consistencyScore,
		Issues:            model.DedupeIssueCodes(append(completenessIssues, consistencyIssues...)),
		ComputedAt:        time.Now().UTC(),
	}, nil
}
