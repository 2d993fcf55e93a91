package pipeline

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/siherrmann/sagagraph/model"
)

// OpenAIEmbedder creates an embedder backed by the OpenAI embeddings API.
// The batch function sends all texts in a single request; entries the API
// fails to return stay nil in the order-aligned result.
func OpenAIEmbedder(client *openai.Client, embeddingModel openai.EmbeddingModel) *Embedder {
	embed := func(text string) ([]float32, error) {
		resp, err := client.CreateEmbeddings(context.Background(), openai.EmbeddingRequest{
			Input: []string{text},
			Model: embeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrEmbeddingService, err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("%w: no embedding returned", model.ErrEmbeddingService)
		}
		return resp.Data[0].Embedding, nil
	}

	embedBatch := func(texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return nil, nil
		}

		resp, err := client.CreateEmbeddings(context.Background(), openai.EmbeddingRequest{
			Input: texts,
			Model: embeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrEmbeddingService, err)
		}

		vectors := make([][]float32, len(texts))
		for _, data := range resp.Data {
			if data.Index < 0 || data.Index >= len(vectors) {
				continue
			}
			vectors[data.Index] = data.Embedding
		}
		return vectors, nil
	}

	return NewEmbedder(embed, embedBatch)
}
