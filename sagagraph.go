package sagagraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/sagagraph/core/analysis"
	"github.com/siherrmann/sagagraph/core/pipeline"
	"github.com/siherrmann/sagagraph/core/search"
	"github.com/siherrmann/sagagraph/database"
	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
	loadSql "github.com/siherrmann/sagagraph/sql"
)

// SagaGraph provides a unified interface to all database handlers, the
// quality analysis and the semantic fragment search
type SagaGraph struct {
	DB            *helper.Database
	Sagas         *database.SagasDBHandler
	Entities      *database.EntitiesDBHandler
	Relationships *database.RelationshipsDBHandler
	Fragments     *database.FragmentsDBHandler
	Timeline      *database.TimelineDBHandler
	Metrics       *database.MetricsDBHandler
	Aggregator    *analysis.Aggregator
	Engine        *search.Engine
	Embedder      *pipeline.Embedder // Optional embedding backend
	Splitter      pipeline.SplitFunc // Optional lore splitter
	// Logging
	log *slog.Logger
}

// NewSagaGraph creates a new SagaGraph instance with all handlers initialized
func NewSagaGraph(config *helper.DatabaseConfiguration, embeddingDim int) (*SagaGraph, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("sagagraph", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (sagas first, metrics last)
	// force=false to not reload if functions already exist
	sagas, err := database.NewSagasDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create sagas handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	relationships, err := database.NewRelationshipsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create relationships handler", err)
	}

	fragments, err := database.NewFragmentsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create fragments handler", err)
	}

	timeline, err := database.NewTimelineDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create timeline handler", err)
	}

	metrics, err := database.NewMetricsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create metrics handler", err)
	}

	// Create the quality aggregator over the database handlers
	aggregator := analysis.NewAggregator(entities, relationships, fragments, timeline, metrics, logger)

	graph := &SagaGraph{
		DB:            db,
		Sagas:         sagas,
		Entities:      entities,
		Relationships: relationships,
		Fragments:     fragments,
		Timeline:      timeline,
		Metrics:       metrics,
		Aggregator:    aggregator,
		Splitter:      pipeline.SentenceSplitter(3),
		log:           logger,
	}

	return graph, nil
}

// Close closes the database connection
func (g *SagaGraph) Close() error {
	if g.DB != nil && g.DB.Instance != nil {
		return g.DB.Instance.Close()
	}
	return nil
}

// SetEmbedder sets the embedding backend and rebuilds the search engine on it
func (g *SagaGraph) SetEmbedder(embedder *pipeline.Embedder) {
	g.Embedder = embedder
	g.Engine = search.NewEngine(g.Fragments, embedder.Embed, g.log)
}

// UseDefaultEmbedder sets up the default local embedding backend.
// This uses the all-MiniLM-L6-v2 sentence transformer (384 dimensions).
func (g *SagaGraph) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	g.SetEmbedder(embedder)
	return nil
}

// SetSplitter sets the lore splitter used by ImportLore
func (g *SagaGraph) SetSplitter(splitter pipeline.SplitFunc) {
	g.Splitter = splitter
}

// ImportLore splits lore text into content fragments and inserts them for
// the given entity. The fragments are stored without embeddings; run
// BackfillEmbeddings afterwards to embed them.
// Returns the number of fragments inserted and any error encountered.
func (g *SagaGraph) ImportLore(entity *model.Entity, lore string) (int, error) {
	if g.Splitter == nil {
		return 0, helper.NewError("import lore", fmt.Errorf("splitter not set, use SetSplitter() first"))
	}
	if entity == nil || entity.ID <= 0 {
		return 0, helper.NewError("import lore", fmt.Errorf("%w: entity must be persisted first", model.ErrValidation))
	}
	if lore == "" {
		return 0, helper.NewError("import lore", fmt.Errorf("%w: lore text is empty", model.ErrValidation))
	}

	contents, err := g.Splitter(lore)
	if err != nil {
		return 0, helper.NewError("split lore", err)
	}

	g.log.Info("Split lore into fragments", slog.Int("num_fragments", len(contents)), slog.Int64("entity_id", entity.ID))

	for i, content := range contents {
		fragment := &model.ContentFragment{
			EntityID: entity.ID,
			Content:  content,
		}
		if err := g.Fragments.InsertFragment(fragment); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert fragment %d", i), err)
		}
	}

	return len(contents), nil
}

// BackfillEmbeddings embeds up to limit fragments that are missing an
// embedding and refreshes the embedding hashes of the touched entities
func (g *SagaGraph) BackfillEmbeddings(ctx context.Context, limit int) (*pipeline.BackfillResult, error) {
	if g.Embedder == nil {
		return nil, helper.NewError("backfill embeddings", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}

	backfiller := pipeline.NewBackfiller(g.Fragments, g.Entities, g.Embedder, g.log)
	return backfiller.GenerateMissingEmbeddings(ctx, limit)
}

// Search performs semantic similarity search over all embedded fragments
func (g *SagaGraph) Search(ctx context.Context, query string, config *model.SearchConfig) ([]*model.SearchResult, error) {
	if g.Engine == nil {
		return nil, helper.NewError("semantic search", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}

	return g.Engine.Search(ctx, query, config)
}

// SearchEntity performs semantic similarity search scoped to one entity's fragments
func (g *SagaGraph) SearchEntity(ctx context.Context, entityID int64, query string, config *model.SearchConfig) ([]*model.SearchResult, error) {
	if g.Engine == nil {
		return nil, helper.NewError("semantic search", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}

	if config == nil {
		defaultConfig := model.DefaultSearchConfig()
		config = &defaultConfig
	}
	config.EntityID = &entityID

	return g.Engine.Search(ctx, query, config)
}

// RecomputeQualityMetrics recomputes metrics for up to limit entities of a
// saga whose metrics are absent or stale, oldest first
func (g *SagaGraph) RecomputeQualityMetrics(ctx context.Context, sagaID int64, limit int) (*analysis.RecomputeResult, error) {
	return g.Aggregator.Recompute(ctx, sagaID, nil, limit)
}

// RecomputeEntityQualityMetrics recomputes the metrics of a single entity
func (g *SagaGraph) RecomputeEntityQualityMetrics(ctx context.Context, sagaID int64, entityID int64) (*analysis.RecomputeResult, error) {
	return g.Aggregator.Recompute(ctx, sagaID, &entityID, 0)
}

// EntityQuality retrieves the persisted metrics row of an entity
func (g *SagaGraph) EntityQuality(entityID int64) (*model.QualityMetrics, error) {
	return g.Metrics.SelectQualityMetrics(entityID)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (g *SagaGraph) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return g.Fragments.ChangeIndexType(ctx, indexType, params)
}
