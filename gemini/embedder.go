// Package gemini implements sitegraph.EmbeddingService using Google Gemini.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fwojciec/sitegraph"
	"google.golang.org/genai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "gemini-embedding-001"

// DefaultMaxChars is the per-text truncation limit for Gemini embeddings.
const DefaultMaxChars = 8000

// taskType tunes vectors for similarity between page content and queries.
const taskType = "SEMANTIC_SIMILARITY"

// Ensure EmbeddingService implements sitegraph.EmbeddingService at compile time.
var _ sitegraph.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService implements sitegraph.EmbeddingService using Gemini.
type EmbeddingService struct {
	client     *genai.Client
	model      string
	dimensions int32
}

// Option configures an EmbeddingService.
type Option func(*EmbeddingService)

// WithModel selects the embedding model.
func WithModel(model string) Option {
	return func(s *EmbeddingService) {
		s.model = model
	}
}

// WithDimensions truncates vectors to n dimensions. Zero keeps the model default.
func WithDimensions(n int32) Option {
	return func(s *EmbeddingService) {
		s.dimensions = n
	}
}

// NewEmbeddingService creates a new EmbeddingService.
func NewEmbeddingService(client *genai.Client, opts ...Option) *EmbeddingService {
	s := &EmbeddingService{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient creates a Gemini API client for apiKey.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, sitegraph.Errorf(sitegraph.EUNAUTHORIZED, "gemini API key required")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// EmbedTexts embeds texts in one request.
func (s *EmbeddingService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	config := &genai.EmbedContentConfig{TaskType: taskType}
	if s.dimensions > 0 {
		dims := s.dimensions
		config.OutputDimensionality = &dims
	}

	result, err := s.client.Models.EmbedContent(ctx, s.model, contents, config)
	if err != nil {
		return nil, classify(err)
	}
	if result == nil {
		return nil, sitegraph.Errorf(sitegraph.EINTERNAL, "gemini returned nil result")
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, e := range result.Embeddings {
		if e != nil {
			vectors[i] = e.Values
		}
	}
	return vectors, nil
}

// classify maps Gemini API errors onto application error codes.
func classify(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case http.StatusTooManyRequests:
		return sitegraph.Errorf(sitegraph.ERATELIMIT, "gemini: %s", apiErr.Message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return sitegraph.Errorf(sitegraph.EUNAUTHORIZED, "gemini: %s", apiErr.Message)
	case http.StatusBadRequest:
		if strings.Contains(apiErr.Message, "API key") {
			return sitegraph.Errorf(sitegraph.EUNAUTHORIZED, "gemini: %s", apiErr.Message)
		}
		return sitegraph.Errorf(sitegraph.EINVALID, "gemini: %s", apiErr.Message)
	}
	if apiErr.Code >= 500 {
		return sitegraph.Errorf(sitegraph.EUNAVAILABLE, "gemini: %s", apiErr.Message)
	}
	return err
}
