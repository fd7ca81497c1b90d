// Package embedding adapts a raw embedding provider into a sitegraph.Embedder
// that truncates input, batches requests, retries with backoff, and degrades
// to "no embedding" instead of failing the caller.
package embedding

import (
	"context"
	"time"

	"github.com/fwojciec/sitegraph"
)

// Defaults for a Client.
const (
	DefaultMaxChars  = 8000
	DefaultBatchSize = 20
	DefaultTimeout   = 30 * time.Second
)

// Compile-time interface verification.
var _ sitegraph.Embedder = (*Client)(nil)

// Client implements sitegraph.Embedder over a raw EmbeddingService.
//
// Rate-limit errors are retried after each of RateLimitDelays. Any other
// provider error is retried after each of ErrorDelays. When retries run out
// the text gets no embedding. Authentication errors are returned at once.
type Client struct {
	service sitegraph.EmbeddingService

	maxChars        int
	batchSize       int
	timeout         time.Duration
	rateLimitDelays []time.Duration
	errorDelays     []time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithMaxChars sets the per-text character budget. Longer texts are truncated.
func WithMaxChars(n int) Option {
	return func(c *Client) {
		c.maxChars = n
	}
}

// WithBatchSize sets the number of texts submitted per provider call.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		c.batchSize = n
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetryDelays sets the backoff schedules. The number of retries equals
// the number of delays.
func WithRetryDelays(rateLimit, other []time.Duration) Option {
	return func(c *Client) {
		c.rateLimitDelays = rateLimit
		c.errorDelays = other
	}
}

// DefaultRateLimitDelays returns the rate-limit backoff: 1s, 2s (3 attempts).
func DefaultRateLimitDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second}
}

// DefaultErrorDelays returns the backoff for other errors: one retry after 1s.
func DefaultErrorDelays() []time.Duration {
	return []time.Duration{1 * time.Second}
}

// NewClient returns a Client wrapping service.
func NewClient(service sitegraph.EmbeddingService, opts ...Option) *Client {
	c := &Client{
		service:         service,
		maxChars:        DefaultMaxChars,
		batchSize:       DefaultBatchSize,
		timeout:         DefaultTimeout,
		rateLimitDelays: DefaultRateLimitDelays(),
		errorDelays:     DefaultErrorDelays(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns the vector for text, or nil when none is available.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in batches and returns vectors in input order.
// Empty texts and texts whose batch failed get nil vectors.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	// Submit only non-empty texts; idx maps submitted position to input position.
	var submit []string
	var idx []int
	for i, t := range texts {
		t = Truncate(t, c.maxChars)
		if t == "" {
			continue
		}
		submit = append(submit, t)
		idx = append(idx, i)
	}

	size := c.batchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	for start := 0; start < len(submit); start += size {
		end := min(start+size, len(submit))
		vecs, err := c.embedWithRetry(ctx, submit[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			// Misaligned response: no embeddings for this batch.
			continue
		}
		for j, v := range vecs {
			if len(v) == 0 {
				continue
			}
			out[idx[start+j]] = v
		}
	}
	return out, nil
}

// embedWithRetry calls the provider, returning nil vectors once retries
// are exhausted and an error only for authentication failures or
// cancellation.
func (c *Client) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	rateLimitRetries := 0
	errorRetries := 0
	for {
		vecs, err := c.call(ctx, texts)
		if err == nil {
			return vecs, nil
		}

		var delay time.Duration
		switch sitegraph.ErrorCode(err) {
		case sitegraph.EUNAUTHORIZED:
			return nil, err
		case sitegraph.ERATELIMIT:
			if rateLimitRetries >= len(c.rateLimitDelays) {
				return nil, nil
			}
			delay = c.rateLimitDelays[rateLimitRetries]
			rateLimitRetries++
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errorRetries >= len(c.errorDelays) {
				return nil, nil
			}
			delay = c.errorDelays[errorRetries]
			errorRetries++
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *Client) call(ctx context.Context, texts []string) ([][]float32, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.service.EmbedTexts(ctx, texts)
}

// Truncate caps text at maxChars runes. A non-positive maxChars disables the cap.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	// Byte length bounds rune count, so short texts skip the conversion.
	if len(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
