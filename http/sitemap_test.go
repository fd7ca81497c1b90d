package http_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/sitegraph"
	sghttp "github.com/fwojciec/sitegraph/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urlset(locs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, l := range locs {
		b.WriteString("<url><loc>" + l + "</loc></url>")
	}
	b.WriteString(`</urlset>`)
	return b.String()
}

func TestSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("reads sitemaps listed in robots.txt", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/robots.txt": "User-agent: *\nDisallow: /private/\nSITEMAP: {{BASE}}/s1.xml\nSitemap: {{BASE}}/s2.xml\n",
			"/s1.xml":     urlset("{{BASE}}/page1"),
			"/s2.xml":     urlset("{{BASE}}/page2", "{{BASE}}/page1"),
		})
		defer srv.Close()

		svc := sghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/page1", srv.URL + "/page2"}, urls)
	})

	t.Run("falls back to sitemap.xml", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/page1"),
		})
		defer srv.Close()

		svc := sghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL+"/docs/", nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/page1"}, urls)
	})

	t.Run("follows sitemap indexes and skips broken children", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-docs.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/missing.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/broken.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-api.xml</loc></sitemap>
</sitemapindex>`,
			"/sitemap-docs.xml": urlset("{{BASE}}/docs/intro"),
			"/broken.xml":       "<urlset><url><loc>",
			"/sitemap-api.xml":  urlset("{{BASE}}/api/reference"),
		})
		defer srv.Close()

		svc := sghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/docs/intro", srv.URL + "/api/reference"}, urls)
	})

	t.Run("filters and normalizes through scope", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset(
				"{{BASE}}/docs/intro/",
				"{{BASE}}/docs/intro#top",
				"{{BASE}}/admin/panel",
				"{{BASE}}/brochure.pdf",
				"https://elsewhere.example/page",
			),
		})
		defer srv.Close()

		scope, err := sitegraph.NewScope(srv.URL, []string{"/admin"})
		require.NoError(t, err)

		svc := sghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, scope)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/docs/intro"}, urls)
	})

	t.Run("reads gzipped sitemaps", func(t *testing.T) {
		t.Parallel()

		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/robots.txt":
				_, _ = w.Write([]byte("Sitemap: " + srv.URL + "/sitemap.xml.gz\n"))
			case "/sitemap.xml.gz":
				var buf bytes.Buffer
				gz := gzip.NewWriter(&buf)
				_, _ = gz.Write([]byte(urlset(srv.URL + "/zipped")))
				_ = gz.Close()
				_, _ = w.Write(buf.Bytes())
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		svc := sghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/zipped"}, urls)
	})

	t.Run("caps the number of URLs", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/a", "{{BASE}}/b", "{{BASE}}/c"),
		})
		defer srv.Close()

		svc := sghttp.NewSitemapService(srv.Client(), sghttp.WithMaxSitemapURLs(2))
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Len(t, urls, 2)
	})

	t.Run("returns empty slice when no sitemap exists", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{})
		defer srv.Close()

		svc := sghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.NotNil(t, urls)
		assert.Empty(t, urls)
	})

	t.Run("rejects invalid base URL", func(t *testing.T) {
		t.Parallel()

		svc := sghttp.NewSitemapService(nil)
		_, err := svc.DiscoverURLs(context.Background(), "not a url", nil)

		assert.Equal(t, sitegraph.EINVALID, sitegraph.ErrorCode(err))
	})

	t.Run("returns context error when canceled", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/page1"),
		})
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := sghttp.NewSitemapService(srv.Client())
		_, err := svc.DiscoverURLs(ctx, srv.URL, nil)

		require.ErrorIs(t, err, context.Canceled)
	})
}

// newTestServer creates a test HTTP server with the given path->content mapping.
// Content strings may contain {{BASE}} which is replaced with the server URL.
func newTestServer(t *testing.T, content map[string]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := content[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body = strings.ReplaceAll(body, "{{BASE}}", srv.URL)

		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
		} else {
			w.Header().Set("Content-Type", "application/xml")
		}
		_, _ = w.Write([]byte(body))
	}))

	return srv
}
