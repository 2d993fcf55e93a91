package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/siherrmann/sagagraph/core/pipeline"
	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
)

// FragmentSource provides the candidate fragments of a search.
// It is satisfied by database.FragmentsDBHandler.
type FragmentSource interface {
	SelectFragmentsByEntity(entityID int64) ([]*model.ContentFragment, error)
	SelectFragmentsWithEmbedding(limit int) ([]*model.ContentFragment, error)
}

// Engine performs semantic similarity search over embedded fragments.
// Similarity is computed in process over a bounded candidate scan, so
// results are exact for the scanned window rather than index approximate.
type Engine struct {
	fragments FragmentSource
	embedder  pipeline.EmbedFunc
	logger    *slog.Logger
}

// NewEngine creates a new search engine
func NewEngine(fragments FragmentSource, embedder pipeline.EmbedFunc, logger *slog.Logger) *Engine {
	return &Engine{
		fragments: fragments,
		embedder:  embedder,
		logger:    logger,
	}
}

// Search embeds the query text once and ranks candidate fragments by
// cosine similarity, descending, ties broken by ascending fragment id.
// Fragments without an embedding or with an unparseable one are skipped.
// With config nil the default configuration is used; with config.EntityID
// set the scan is restricted to that entity's fragments, otherwise it is
// bounded at limit times the candidate factor.
func (e *Engine) Search(ctx context.Context, queryText string, config *model.SearchConfig) ([]*model.SearchResult, error) {
	if queryText == "" {
		return nil, helper.NewError("validate query", fmt.Errorf("%w: query text must not be empty", model.ErrValidation))
	}
	if config == nil {
		defaultConfig := model.DefaultSearchConfig()
		config = &defaultConfig
	}
	if config.Limit <= 0 {
		return nil, helper.NewError("validate limit", fmt.Errorf("%w: limit must be positive, got %d", model.ErrValidation, config.Limit))
	}
	if e.embedder == nil {
		return nil, helper.NewError("validate embedder", fmt.Errorf("%w: no embedder configured", model.ErrEmbeddingService))
	}

	values, err := e.embedder(queryText)
	if err != nil {
		return nil, helper.NewError("embed query", fmt.Errorf("%w: %v", model.ErrEmbeddingService, err))
	}
	query, err := model.NewVector(values)
	if err != nil {
		return nil, helper.NewError("validate query embedding", err)
	}

	candidates, err := e.selectCandidates(config)
	if err != nil {
		return nil, helper.NewError("select candidates", err)
	}

	var results []*model.SearchResult
	for _, fragment := range candidates {
		if !fragment.HasEmbedding() {
			continue
		}

		vector, err := fragment.EmbeddingVector()
		if err != nil {
			e.logger.Debug("Skipping fragment with unparseable embedding", "fragmentId", fragment.ID, "error", err)
			continue
		}

		similarity, err := query.CosineSimilarity(vector)
		if err != nil {
			e.logger.Debug("Skipping fragment with mismatched embedding", "fragmentId", fragment.ID, "error", err)
			continue
		}

		if similarity < config.MinSimilarity {
			continue
		}

		results = append(results, &model.SearchResult{
			Fragment:   fragment,
			Similarity: similarity,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Fragment.ID < results[j].Fragment.ID
	})

	if len(results) > config.Limit {
		results = results[:config.Limit]
	}

	return results, nil
}

// selectCandidates bounds the scan. The entity-scoped scan is small by
// construction and is not windowed.
func (e *Engine) selectCandidates(config *model.SearchConfig) ([]*model.ContentFragment, error) {
	if config.EntityID != nil {
		return e.fragments.SelectFragmentsByEntity(*config.EntityID)
	}

	factor := config.CandidateFactor
	if factor <= 0 {
		factor = model.DefaultSearchConfig().CandidateFactor
	}
	return e.fragments.SelectFragmentsWithEmbedding(config.Limit * factor)
}
