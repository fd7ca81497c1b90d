package mock

import (
	"context"

	"github.com/fwojciec/sitegraph"
)

var _ sitegraph.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService is a mock implementation of sitegraph.EmbeddingService.
type EmbeddingService struct {
	EmbedTextsFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (s *EmbeddingService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return s.EmbedTextsFn(ctx, texts)
}

var _ sitegraph.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of sitegraph.Embedder.
type Embedder struct {
	EmbedFn      func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedFn(ctx, text)
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedBatchFn(ctx, texts)
}
