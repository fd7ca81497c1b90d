package sitegraph_test

import (
	"testing"

	"github.com/fwojciec/sitegraph"
	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	t.Run("identical vectors score one", func(t *testing.T) {
		t.Parallel()

		assert.InDelta(t, 1.0, sitegraph.CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	})

	t.Run("orthogonal vectors score zero", func(t *testing.T) {
		t.Parallel()

		assert.InDelta(t, 0.0, sitegraph.CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("ignores magnitude", func(t *testing.T) {
		t.Parallel()

		assert.InDelta(t, 1.0, sitegraph.CosineSimilarity([]float32{1, 1}, []float32{5, 5}), 1e-9)
	})

	t.Run("zero vector scores zero", func(t *testing.T) {
		t.Parallel()

		assert.Zero(t, sitegraph.CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	})

	t.Run("length mismatch scores zero", func(t *testing.T) {
		t.Parallel()

		assert.Zero(t, sitegraph.CosineSimilarity([]float32{1}, []float32{1, 1}))
	})
}

func TestMagnitude(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 5.0, sitegraph.Magnitude([]float32{3, 4}), 1e-9)
	assert.Zero(t, sitegraph.Magnitude(nil))
}
