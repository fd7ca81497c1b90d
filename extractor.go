package sitegraph

// Link is an outbound hyperlink found on a page.
type Link struct {
	// URL is the normalized target. Empty for rejected links.
	URL   string
	Text  string
	Scope LinkScope
}

// PageContent is the structured record extracted from a page's markup.
type PageContent struct {
	Title       string
	Description string
	Keywords    string

	// Headings maps heading level (1-6) to heading text in document order.
	Headings map[int][]string

	// Text is the whitespace-collapsed visible body text, length-capped.
	Text string

	Links          []Link
	Elements       []*Element
	StructuredData []map[string]any

	// ParseError is set when extraction failed partway. Fields extracted
	// before the failure are kept.
	ParseError string
}

// InternalLinks returns the URLs of in-scope links.
func (c *PageContent) InternalLinks() []string {
	var urls []string
	for _, l := range c.Links {
		if l.Scope == ScopeInternal {
			urls = append(urls, l.URL)
		}
	}
	return urls
}

// ExternalLinks returns the URLs of out-of-scope links.
func (c *PageContent) ExternalLinks() []string {
	var urls []string
	for _, l := range c.Links {
		if l.Scope == ScopeExternal {
			urls = append(urls, l.URL)
		}
	}
	return urls
}

// Extractor turns raw markup into a structured record.
type Extractor interface {
	// Extract parses rawHTML fetched from pageURL. Links are classified
	// against scope. Extract never fails: structural errors are recorded
	// in PageContent.ParseError.
	Extract(rawHTML, pageURL string, scope *Scope) *PageContent
}
