package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"

	"github.com/siherrmann/sagagraph/helper"
	"github.com/siherrmann/sagagraph/model"
)

// FragmentStore provides the fragment operations of the backfill.
// It is satisfied by database.FragmentsDBHandler.
type FragmentStore interface {
	SelectFragmentsWithoutEmbedding(limit int) ([]*model.ContentFragment, error)
	SelectFragmentsByEntity(entityID int64) ([]*model.ContentFragment, error)
	UpdateFragmentEmbeddings(fragments []*model.ContentFragment) error
}

// EntityStore provides the entity hash update of the backfill.
// It is satisfied by database.EntitiesDBHandler.
type EntityStore interface {
	UpdateEntityEmbeddingHash(id int64, hash string) error
}

// BackfillResult summarizes one backfill run.
// Scanned counts fragments selected for embedding, Embedded counts
// fragments whose embedding was written, Failed counts fragments the
// embedder could not produce a vector for.
type BackfillResult struct {
	Scanned  int `json:"scanned"`
	Embedded int `json:"embedded"`
	Failed   int `json:"failed"`
}

// Backfiller generates embeddings for fragments that are missing one.
// All pending texts go to the embedder in a single batched call and all
// produced embeddings are written in one transaction.
type Backfiller struct {
	fragments FragmentStore
	entities  EntityStore
	embedder  *Embedder
	logger    *slog.Logger
}

// NewBackfiller creates a new embedding backfiller
func NewBackfiller(fragments FragmentStore, entities EntityStore, embedder *Embedder, logger *slog.Logger) *Backfiller {
	return &Backfiller{
		fragments: fragments,
		entities:  entities,
		embedder:  embedder,
		logger:    logger,
	}
}

// GenerateMissingEmbeddings embeds up to limit fragments without an
// embedding and refreshes the embedding hash of every touched entity.
// Per-fragment embedder failures are counted, not raised; a whole-batch
// embedder failure is.
func (b *Backfiller) GenerateMissingEmbeddings(ctx context.Context, limit int) (*BackfillResult, error) {
	if limit <= 0 {
		return nil, helper.NewError("validate limit", fmt.Errorf("%w: limit must be positive, got %d", model.ErrValidation, limit))
	}
	if b.embedder == nil {
		return nil, helper.NewError("validate embedder", fmt.Errorf("%w: no embedder configured", model.ErrEmbeddingService))
	}

	fragments, err := b.fragments.SelectFragmentsWithoutEmbedding(limit)
	if err != nil {
		return nil, helper.NewError("select fragments without embedding", err)
	}

	result := &BackfillResult{Scanned: len(fragments)}
	if len(fragments) == 0 {
		return result, nil
	}

	texts := make([]string, len(fragments))
	for i, fragment := range fragments {
		texts[i] = fragment.Content
	}

	vectors, err := b.embedder.EmbedBatch(texts)
	if err != nil {
		return nil, helper.NewError("embed fragment batch", err)
	}
	if len(vectors) != len(fragments) {
		return nil, helper.NewError("embed fragment batch", fmt.Errorf("%w: expected %d embeddings, got %d", model.ErrEmbeddingService, len(fragments), len(vectors)))
	}

	var embedded []*model.ContentFragment
	touched := map[int64]bool{}
	for i, fragment := range fragments {
		if vectors[i] == nil {
			result.Failed++
			b.logger.Warn("Failed to embed fragment", "fragmentId", fragment.ID)
			continue
		}

		vector, err := model.NewVector(vectors[i])
		if err != nil {
			result.Failed++
			b.logger.Warn("Embedder produced invalid vector", "fragmentId", fragment.ID, "error", err)
			continue
		}

		fragment.Embedding = vector.Values()
		embedded = append(embedded, fragment)
		touched[fragment.EntityID] = true
	}

	if len(embedded) > 0 {
		err = b.fragments.UpdateFragmentEmbeddings(embedded)
		if err != nil {
			return result, helper.NewError("update fragment embeddings", err)
		}
		result.Embedded = len(embedded)
	}

	entityIDs := make([]int64, 0, len(touched))
	for entityID := range touched {
		entityIDs = append(entityIDs, entityID)
	}
	sort.Slice(entityIDs, func(i, j int) bool { return entityIDs[i] < entityIDs[j] })

	for _, entityID := range entityIDs {
		err := b.refreshEntityEmbeddingHash(entityID)
		if err != nil {
			b.logger.Warn("Failed to refresh entity embedding hash", "entityId", entityID, "error", err)
		}
	}

	b.logger.Info("Backfill finished", "scanned", result.Scanned, "embedded", result.Embedded, "failed", result.Failed)

	return result, nil
}

// refreshEntityEmbeddingHash recomputes the content hash of an entity as
// the SHA-256 over the binary encodings of its fragment embeddings in
// fragment id order
func (b *Backfiller) refreshEntityEmbeddingHash(entityID int64) error {
	fragments, err := b.fragments.SelectFragmentsByEntity(entityID)
	if err != nil {
		return helper.NewError("select entity fragments", err)
	}

	hash := sha256.New()
	for _, fragment := range fragments {
		if !fragment.HasEmbedding() {
			continue
		}
		vector, err := fragment.EmbeddingVector()
		if err != nil {
			return helper.NewError("decode fragment embedding", err)
		}
		hash.Write(vector.ToBinary())
	}

	return b.entities.UpdateEntityEmbeddingHash(entityID, hex.EncodeToString(hash.Sum(nil)))
}
