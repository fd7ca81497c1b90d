//go:build integration

package http_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/sitegraph"
	sghttp "github.com/fwojciec/sitegraph/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitemapService_Integration_Htmx(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scope, err := sitegraph.NewScope("https://htmx.org", []string{"/essays/"})
	require.NoError(t, err)

	// htmx.org declares its sitemap in robots.txt
	svc := sghttp.NewSitemapService(nil)
	urls, err := svc.DiscoverURLs(ctx, "https://htmx.org", scope)
	require.NoError(t, err)

	assert.NotEmpty(t, urls, "expected at least some URLs from htmx.org sitemap")
	for _, u := range urls {
		assert.NotContains(t, u, "/essays/")
	}
	t.Logf("Found %d URLs from htmx.org sitemap", len(urls))
}
