package bloom_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/sitegraph/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_MayContain(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.MayContain("https://example.com/products"))

	f.Add("https://example.com/products")

	assert.True(t, f.MayContain("https://example.com/products"))
	assert.False(t, f.MayContain("https://example.com/checkout"))
}

func TestFilter_TestAndAdd(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.TestAndAdd("https://example.com/"), "first add reports absent")
	assert.True(t, f.TestAndAdd("https://example.com/"), "second add reports present")
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	assert.Equal(t, uint(0), f.EstimatedCount())

	for i := range 3 {
		f.Add(fmt.Sprintf("https://example.com/page%d", i))
	}
	f.Add("https://example.com/page0")

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestFilter_zero_capacity_is_usable(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(0, 0.01)
	f.Add("https://example.com/")
	assert.True(t, f.MayContain("https://example.com/"))
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const (
		numItems = 10000
		fpRate   = 0.01
	)

	f := bloom.NewFilter(numItems, fpRate)
	for i := range numItems {
		f.Add(fmt.Sprintf("https://example.com/added/%d", i))
	}

	falsePositives := 0
	for i := range numItems {
		if f.MayContain(fmt.Sprintf("https://example.com/absent/%d", i)) {
			falsePositives++
		}
	}

	// Allow 3x headroom over the configured rate.
	assert.Less(t, float64(falsePositives)/numItems, fpRate*3)
}

func TestFilter_concurrent_use(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				u := fmt.Sprintf("https://example.com/%d/%d", i, j)
				f.Add(u)
				_ = f.MayContain(u)
			}
		}()
	}
	wg.Wait()

	assert.True(t, f.MayContain("https://example.com/7/49"))
}
