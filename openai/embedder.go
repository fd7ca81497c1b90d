// Package openai implements sitegraph.EmbeddingService using the OpenAI
// embeddings API.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/fwojciec/sitegraph"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel produces 1536-dimensional vectors.
const DefaultModel = openai.SmallEmbedding3

// DefaultMaxChars is the per-text truncation limit for OpenAI embeddings.
const DefaultMaxChars = 30000

// Ensure EmbeddingService implements sitegraph.EmbeddingService at compile time.
var _ sitegraph.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService implements sitegraph.EmbeddingService using OpenAI.
type EmbeddingService struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// Option configures an EmbeddingService.
type Option func(*EmbeddingService)

// WithModel selects the embedding model.
func WithModel(model string) Option {
	return func(s *EmbeddingService) {
		s.model = openai.EmbeddingModel(model)
	}
}

// WithDimensions shortens vectors to n dimensions. Zero keeps the model default.
func WithDimensions(n int) Option {
	return func(s *EmbeddingService) {
		s.dimensions = n
	}
}

// NewEmbeddingService creates a new EmbeddingService.
func NewEmbeddingService(client *openai.Client, opts ...Option) *EmbeddingService {
	s := &EmbeddingService{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient creates an API client for apiKey. A non-empty baseURL points the
// client at a compatible server.
func NewClient(apiKey, baseURL string) (*openai.Client, error) {
	if apiKey == "" {
		return nil, sitegraph.Errorf(sitegraph.EUNAUTHORIZED, "openai API key required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg), nil
}

// EmbedTexts embeds texts in one request. Vectors are placed by the index
// the API reports, so the result follows input order.
func (s *EmbeddingService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      s.model,
		Dimensions: s.dimensions,
	})
	if err != nil {
		return nil, classify(err)
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, sitegraph.Errorf(sitegraph.EINTERNAL, "openai returned embedding index %d for %d inputs", d.Index, len(texts))
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// classify maps OpenAI errors onto application error codes.
func classify(err error) error {
	var status int
	var message string

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status, message = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status, message = reqErr.HTTPStatusCode, reqErr.Error()
	default:
		return err
	}

	switch {
	case status == http.StatusTooManyRequests:
		return sitegraph.Errorf(sitegraph.ERATELIMIT, "openai: %s", message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return sitegraph.Errorf(sitegraph.EUNAUTHORIZED, "openai: %s", message)
	case status == http.StatusBadRequest:
		return sitegraph.Errorf(sitegraph.EINVALID, "openai: %s", message)
	case status >= 500:
		return sitegraph.Errorf(sitegraph.EUNAVAILABLE, "openai: %s", message)
	}
	return err
}
