package pipeline

// EmbedFunc generates an embedding for a single text
type EmbedFunc func(text string) ([]float32, error)

// EmbedBatchFunc generates embeddings for many texts in one call.
// The result is order-aligned with the input; a nil entry marks a
// per-item failure without failing the whole batch.
type EmbedBatchFunc func(texts []string) ([][]float32, error)

// SplitFunc splits lore text into fragment contents
type SplitFunc func(text string) ([]string, error)

// Embedder bundles the single and batched embedding functions of one
// backend. Both must produce vectors of the same dimension.
type Embedder struct {
	Embed      EmbedFunc
	EmbedBatch EmbedBatchFunc
}

// NewEmbedder creates an embedder from explicit functions.
// With embedBatch nil, batches fall back to sequential single calls.
func NewEmbedder(embed EmbedFunc, embedBatch EmbedBatchFunc) *Embedder {
	embedder := &Embedder{Embed: embed, EmbedBatch: embedBatch}
	if embedder.EmbedBatch == nil {
		embedder.EmbedBatch = func(texts []string) ([][]float32, error) {
			vectors := make([][]float32, len(texts))
			for i, text := range texts {
				vector, err := embed(text)
				if err != nil {
					// Per-item failure, leave the entry nil.
					continue
				}
				vectors[i] = vector
			}
			return vectors, nil
		}
	}
	return embedder
}
