package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitegraph"
)

// Ensure LoggingEmbeddingService implements sitegraph.EmbeddingService.
var _ sitegraph.EmbeddingService = (*LoggingEmbeddingService)(nil)

// LoggingEmbeddingService wraps an EmbeddingService with logging.
type LoggingEmbeddingService struct {
	next   sitegraph.EmbeddingService
	logger *slog.Logger
}

// NewLoggingEmbeddingService creates a new LoggingEmbeddingService.
func NewLoggingEmbeddingService(next sitegraph.EmbeddingService, logger *slog.Logger) *LoggingEmbeddingService {
	return &LoggingEmbeddingService{next: next, logger: logger}
}

// EmbedTexts delegates to the wrapped service and logs batch size, input
// size, and vector dimension. Rate limiting is logged as a warning.
func (s *LoggingEmbeddingService) EmbedTexts(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	defer func(begin time.Time) {
		chars := 0
		for _, t := range texts {
			chars += len(t)
		}
		dims := 0
		for _, v := range vectors {
			if len(v) > 0 {
				dims = len(v)
				break
			}
		}

		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "embed",
			"texts", len(texts),
			"chars", chars,
			"dims", dims,
			"code", sitegraph.ErrorCode(err),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.EmbedTexts(ctx, texts)
}
