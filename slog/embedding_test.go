package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/mock"
	sgslog "github.com/fwojciec/sitegraph/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingEmbeddingService_EmbedTexts(t *testing.T) {
	t.Parallel()

	t.Run("logs batch size and dimensions at debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.EmbeddingService{
			EmbedTextsFn: func(ctx context.Context, texts []string) ([][]float32, error) {
				return [][]float32{nil, {1, 2, 3}}, nil
			},
		}

		svc := sgslog.NewLoggingEmbeddingService(inner, logger)
		vecs, err := svc.EmbedTexts(context.Background(), []string{"ab", "cde"})

		require.NoError(t, err)
		assert.Len(t, vecs, 2)
		output := buf.String()
		assert.Contains(t, output, "level=DEBUG")
		assert.Contains(t, output, "msg=embed")
		assert.Contains(t, output, "texts=2")
		assert.Contains(t, output, "chars=5")
		assert.Contains(t, output, "dims=3")
	})

	t.Run("logs failures as warnings with code", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.EmbeddingService{
			EmbedTextsFn: func(ctx context.Context, texts []string) ([][]float32, error) {
				return nil, sitegraph.Errorf(sitegraph.ERATELIMIT, "slow down")
			},
		}

		svc := sgslog.NewLoggingEmbeddingService(inner, logger)
		_, err := svc.EmbedTexts(context.Background(), []string{"text"})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "code=rate_limit")
	})
}
