package sitegraph

// Crawl limits used when a CrawlConfig leaves them unset.
const (
	DefaultMaxPages = 1000
	DefaultMaxDepth = 10
)

// CrawlConfig controls a single crawl session.
type CrawlConfig struct {
	// Origin is the seed URL. Its host bounds the crawl.
	Origin string

	// MaxPages caps the number of successfully processed pages.
	MaxPages int

	// MaxDepth caps link distance from the origin. URLs deeper than this
	// are dropped without fetching.
	MaxDepth int

	// Blacklist holds literal or regular-expression patterns matched
	// against URL path and query.
	Blacklist []string
}

// Validate returns an error if the configuration cannot drive a crawl.
func (c *CrawlConfig) Validate() error {
	if c.Origin == "" {
		return Errorf(EINVALID, "origin URL required")
	}
	if c.MaxPages <= 0 {
		return Errorf(EINVALID, "max pages must be positive, got %d", c.MaxPages)
	}
	if c.MaxDepth < 0 {
		return Errorf(EINVALID, "max depth must not be negative, got %d", c.MaxDepth)
	}
	_, err := c.Scope()
	return err
}

// Scope builds the crawl scope from Origin and Blacklist.
func (c *CrawlConfig) Scope() (*Scope, error) {
	return NewScope(c.Origin, c.Blacklist)
}
