package sitegraph

import "context"

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs finds all URLs from a site's sitemap.
	// It first checks robots.txt for sitemap directives, then falls back
	// to /sitemap.xml. Sitemap indexes are resolved recursively.
	//
	// When scope is non-nil only crawlable URLs are returned, normalized.
	DiscoverURLs(ctx context.Context, baseURL string, scope *Scope) ([]string, error)
}
