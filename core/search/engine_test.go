package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/siherrmann/sagagraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFragmentSource struct {
	fragments []*model.ContentFragment
	byEntity  map[int64][]*model.ContentFragment
	err       error

	lastScanLimit int
}

func (f *fakeFragmentSource) SelectFragmentsByEntity(entityID int64) ([]*model.ContentFragment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byEntity[entityID], nil
}

func (f *fakeFragmentSource) SelectFragmentsWithEmbedding(limit int) ([]*model.ContentFragment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastScanLimit = limit
	if limit < len(f.fragments) {
		return f.fragments[:limit], nil
	}
	return f.fragments, nil
}

func embeddedFragment(id, entityID int64, embedding []float32) *model.ContentFragment {
	return &model.ContentFragment{
		ID:        id,
		EntityID:  entityID,
		Content:   "fragment content",
		Embedding: embedding,
	}
}

func newTestEngine(source *fakeFragmentSource, queryEmbedding []float32) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(source, func(text string) ([]float32, error) {
		return queryEmbedding, nil
	}, logger)
}

func TestSearchRanksBySimilarity(t *testing.T) {
	source := &fakeFragmentSource{
		fragments: []*model.ContentFragment{
			embeddedFragment(1, 10, []float32{0, 1}),
			embeddedFragment(2, 10, []float32{1, 0}),
			embeddedFragment(3, 10, []float32{1, 1}),
		},
	}

	engine := newTestEngine(source, []float32{1, 0})
	results, err := engine.Search(context.Background(), "the fallen empire", &model.SearchConfig{Limit: 5, MinSimilarity: 0.5})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, int64(2), results[0].Fragment.ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.Equal(t, int64(3), results[1].Fragment.ID)
	assert.InDelta(t, 0.7071, results[1].Similarity, 1e-3)
}

func TestSearchFiltersBelowMinSimilarity(t *testing.T) {
	source := &fakeFragmentSource{
		fragments: []*model.ContentFragment{
			embeddedFragment(1, 10, []float32{-1, 0}),
			embeddedFragment(2, 10, []float32{0, 1}),
		},
	}

	engine := newTestEngine(source, []float32{1, 0})
	results, err := engine.Search(context.Background(), "query", &model.SearchConfig{Limit: 5, MinSimilarity: 0.7})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTieBreaksByFragmentID(t *testing.T) {
	source := &fakeFragmentSource{
		fragments: []*model.ContentFragment{
			embeddedFragment(7, 10, []float32{1, 0}),
			embeddedFragment(3, 10, []float32{1, 0}),
			embeddedFragment(5, 10, []float32{1, 0}),
		},
	}

	engine := newTestEngine(source, []float32{1, 0})
	results, err := engine.Search(context.Background(), "query", &model.SearchConfig{Limit: 5, MinSimilarity: 0.5})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, int64(3), results[0].Fragment.ID)
	assert.Equal(t, int64(5), results[1].Fragment.ID)
	assert.Equal(t, int64(7), results[2].Fragment.ID)
}

func TestSearchTruncatesToLimit(t *testing.T) {
	source := &fakeFragmentSource{
		fragments: []*model.ContentFragment{
			embeddedFragment(1, 10, []float32{1, 0}),
			embeddedFragment(2, 10, []float32{1, 0}),
			embeddedFragment(3, 10, []float32{1, 0}),
		},
	}

	engine := newTestEngine(source, []float32{1, 0})
	results, err := engine.Search(context.Background(), "query", &model.SearchConfig{Limit: 2, MinSimilarity: 0.5})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchBoundsCandidateScan(t *testing.T) {
	source := &fakeFragmentSource{}

	engine := newTestEngine(source, []float32{1, 0})
	_, err := engine.Search(context.Background(), "query", &model.SearchConfig{Limit: 5, MinSimilarity: 0.7, CandidateFactor: 10})
	require.NoError(t, err)
	assert.Equal(t, 50, source.lastScanLimit)
}

func TestSearchDefaultConfig(t *testing.T) {
	source := &fakeFragmentSource{}

	engine := newTestEngine(source, []float32{1, 0})
	_, err := engine.Search(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.Equal(t, 50, source.lastScanLimit)
}

func TestSearchScopedToEntity(t *testing.T) {
	source := &fakeFragmentSource{
		fragments: []*model.ContentFragment{
			embeddedFragment(1, 10, []float32{1, 0}),
		},
		byEntity: map[int64][]*model.ContentFragment{
			20: {embeddedFragment(2, 20, []float32{1, 0})},
		},
	}

	entityID := int64(20)
	engine := newTestEngine(source, []float32{1, 0})
	results, err := engine.Search(context.Background(), "query", &model.SearchConfig{Limit: 5, MinSimilarity: 0.5, EntityID: &entityID})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].Fragment.ID)
}

func TestSearchSkipsFragmentsWithoutEmbedding(t *testing.T) {
	source := &fakeFragmentSource{
		fragments: []*model.ContentFragment{
			embeddedFragment(1, 10, nil),
			embeddedFragment(2, 10, []float32{1, 0}),
		},
	}

	engine := newTestEngine(source, []float32{1, 0})
	results, err := engine.Search(context.Background(), "query", &model.SearchConfig{Limit: 5, MinSimilarity: 0.5})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].Fragment.ID)
}

func TestSearchSkipsMismatchedDimensions(t *testing.T) {
	source := &fakeFragmentSource{
		fragments: []*model.ContentFragment{
			embeddedFragment(1, 10, []float32{1, 0, 0}),
			embeddedFragment(2, 10, []float32{1, 0}),
		},
	}

	engine := newTestEngine(source, []float32{1, 0})
	results, err := engine.Search(context.Background(), "query", &model.SearchConfig{Limit: 5, MinSimilarity: 0.5})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].Fragment.ID)
}

func TestSearchEmptyQuery(t *testing.T) {
	engine := newTestEngine(&fakeFragmentSource{}, []float32{1, 0})

	_, err := engine.Search(context.Background(), "", nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSearchInvalidLimit(t *testing.T) {
	engine := newTestEngine(&fakeFragmentSource{}, []float32{1, 0})

	_, err := engine.Search(context.Background(), "query", &model.SearchConfig{Limit: -1})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSearchEmbedderFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(&fakeFragmentSource{}, func(text string) ([]float32, error) {
		return nil, errors.New("service unavailable")
	}, logger)

	_, err := engine.Search(context.Background(), "query", nil)
	assert.ErrorIs(t, err, model.ErrEmbeddingService)
}

func TestSearchSourceFailure(t *testing.T) {
	source := &fakeFragmentSource{err: errors.New("connection reset")}

	engine := newTestEngine(source, []float32{1, 0})
	_, err := engine.Search(context.Background(), "query", nil)
	assert.Error(t, err)
}
