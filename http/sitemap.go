package http

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/sitegraph"
)

// Sitemap discovery limits.
const (
	// DefaultMaxSitemapURLs caps the URLs collected from one site.
	DefaultMaxSitemapURLs = 50000
	// maxIndexDepth bounds sitemap index nesting.
	maxIndexDepth = 5
	// maxSitemapSize caps the bytes read from one sitemap document.
	maxSitemapSize = 50 << 20
)

// Ensure SitemapService implements sitegraph.SitemapService.
var _ sitegraph.SitemapService = (*SitemapService)(nil)

// SitemapService discovers URLs from website sitemaps via HTTP.
type SitemapService struct {
	client  *http.Client
	maxURLs int
}

// SitemapOption configures a SitemapService.
type SitemapOption func(*SitemapService)

// WithMaxSitemapURLs caps the number of URLs returned.
func WithMaxSitemapURLs(n int) SitemapOption {
	return func(s *SitemapService) {
		s.maxURLs = n
	}
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client, opts ...SitemapOption) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	s := &SitemapService{client: client, maxURLs: DefaultMaxSitemapURLs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiscoverURLs finds all page URLs listed in a site's sitemaps.
// Returns an empty slice (not nil) if no sitemaps are found.
//
// Sitemap locations come from robots.txt, falling back to /sitemap.xml.
// A child sitemap that cannot be fetched or parsed is skipped. When scope
// is non-nil, URLs outside it are dropped and the rest are normalized.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, scope *sitegraph.Scope) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "invalid base URL %q", baseURL)
	}
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}

	roots, err := s.sitemapLocations(ctx, root)
	if err != nil {
		return nil, err
	}

	c := &collector{
		service: s,
		scope:   scope,
		visited: make(map[string]bool),
		seen:    make(map[string]bool),
		urls:    []string{},
	}
	for _, loc := range roots {
		if err := c.walk(ctx, loc, 0); err != nil {
			return nil, err
		}
		if c.full() {
			break
		}
	}
	return c.urls, nil
}

// sitemapLocations reads Sitemap directives from robots.txt, falling back
// to /sitemap.xml. Only context errors are returned.
func (s *SitemapService) sitemapLocations(ctx context.Context, root *url.URL) ([]string, error) {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	if body, err := s.get(ctx, robots); err == nil {
		if locs := parseRobots(body); len(locs) > 0 {
			return locs, nil
		}
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return []string{root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()}, nil
}

// parseRobots returns the values of case-insensitive Sitemap: directives.
func parseRobots(body []byte) []string {
	const directive = "sitemap:"
	var locs []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < len(directive) || !strings.EqualFold(line[:len(directive)], directive) {
			continue
		}
		if loc := strings.TrimSpace(line[len(directive):]); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs
}

// collector accumulates URLs across sitemap documents.
type collector struct {
	service *SitemapService
	scope   *sitegraph.Scope
	visited map[string]bool
	seen    map[string]bool
	urls    []string
}

func (c *collector) full() bool {
	return c.service.maxURLs > 0 && len(c.urls) >= c.service.maxURLs
}

// walk processes one sitemap document, descending into indexes.
func (c *collector) walk(ctx context.Context, loc string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.visited[loc] || depth > maxIndexDepth || c.full() {
		return nil
	}
	c.visited[loc] = true

	body, err := c.service.get(ctx, loc)
	if err != nil {
		return ctx.Err()
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}

	if root.Tag == "sitemapindex" {
		for _, child := range locs(root, "sitemap") {
			if err := c.walk(ctx, child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, u := range locs(root, "url") {
		c.add(u)
		if c.full() {
			break
		}
	}
	return nil
}

func (c *collector) add(u string) {
	if c.scope != nil {
		normalized, ok := c.scope.Allow(u, "")
		if !ok {
			return
		}
		u = normalized
	}
	if c.seen[u] {
		return
	}
	c.seen[u] = true
	c.urls = append(c.urls, u)
}

// locs returns the trimmed <loc> text of each entry element under root.
func locs(root *etree.Element, entry string) []string {
	var out []string
	for _, el := range root.SelectElements(entry) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if text := strings.TrimSpace(loc.Text()); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// get fetches target and returns its body, gunzipping .gz documents.
// Non-200 responses are errors.
func (s *SitemapService) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "invalid sitemap URL %q", target)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, sitegraph.Errorf(sitegraph.ENOTFOUND, "HTTP %d for %s", resp.StatusCode, target)
	}

	var r io.Reader = io.LimitReader(resp.Body, maxSitemapSize)
	if strings.HasSuffix(strings.ToLower(req.URL.Path), ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = io.LimitReader(gz, maxSitemapSize)
	}
	return io.ReadAll(r)
}
