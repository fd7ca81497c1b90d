package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/sitegraph"
)

// Ensure EmbeddingService implements sitegraph.EmbeddingService.
var _ sitegraph.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService wraps an EmbeddingService with call metrics.
type EmbeddingService struct {
	next    sitegraph.EmbeddingService
	metrics *Metrics
}

// NewEmbeddingService creates a new EmbeddingService.
func NewEmbeddingService(next sitegraph.EmbeddingService, metrics *Metrics) *EmbeddingService {
	return &EmbeddingService{next: next, metrics: metrics}
}

// EmbedTexts delegates to the wrapped service. Calls are labeled with the
// application error code, or "ok".
func (s *EmbeddingService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	begin := time.Now()
	vectors, err := s.next.EmbedTexts(ctx, texts)
	s.metrics.EmbedDuration.Observe(time.Since(begin).Seconds())
	s.metrics.EmbedTexts.Add(float64(len(texts)))

	code := "ok"
	if err != nil {
		code = sitegraph.ErrorCode(err)
	}
	s.metrics.EmbedRequests.WithLabelValues(code).Inc()
	return vectors, err
}
