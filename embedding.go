package sitegraph

import (
	"context"
	"math"
)

// EmbeddingService is a raw embedding provider.
//
// Implementations map provider failures onto ERATELIMIT and EUNAUTHORIZED
// so callers can decide whether to retry.
type EmbeddingService interface {
	// EmbedTexts returns one vector per input text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder turns text into dense vectors, degrading to "no embedding"
// rather than failing on transient provider errors.
type Embedder interface {
	// Embed returns the vector for text. A nil vector with a nil error
	// means no embedding is available. Only authentication failures
	// are returned as errors.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts and returns vectors in input order, with nil
	// entries for texts that could not be embedded.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CosineSimilarity returns dot(a,b)/(|a|·|b|).
// It returns 0 when the vectors differ in length or either has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
