package sitegraph

import (
	"time"
)

// Page is a crawled document, keyed by its canonical URL.
//
// A Page created only as the target of a LINKS_TO, NAVIGATES_TO, or
// SIMILAR_TO relationship is a stub: it carries URL, Domain, and Path and
// has a zero LastCrawled until the URL is fetched.
type Page struct {
	URL         string
	Domain      string
	Path        string
	Title       string
	Description string
	Keywords    string
	Text        string
	ContentHash string

	// Embedding is nil when no vector is available. Pages without a vector
	// are excluded from similarity ranking.
	Embedding []float32

	StatusCode int
	Latency    time.Duration

	// ParseError records a structural extraction failure for this page.
	ParseError string

	FirstSeen   time.Time
	LastCrawled time.Time
}

// Validate returns an error if the page is missing required fields.
func (p *Page) Validate() error {
	if p.URL == "" {
		return Errorf(EINVALID, "page URL required")
	}
	return nil
}

// Crawled reports whether the page has been fetched at least once.
func (p *Page) Crawled() bool {
	return !p.LastCrawled.IsZero()
}

// ElementType tags the kind of interactive element.
type ElementType string

// Element types.
const (
	ElementButton    ElementType = "button"
	ElementInput     ElementType = "input"
	ElementForm      ElementType = "form"
	ElementClickable ElementType = "clickable"
)

// Element is an interactive unit found on a page.
type Element struct {
	// ID is stable across crawls and unique across the graph.
	ID       string
	PageURL  string
	Type     ElementType
	Text     string
	Selector string

	// Action and Method are set for forms.
	Action string
	Method string

	// NavigatesTo is the canonical URL of the in-scope page the element
	// leads to, when determinable.
	NavigatesTo string
}

// Validate returns an error if the element is missing required fields.
func (e *Element) Validate() error {
	if e.ID == "" {
		return Errorf(EINVALID, "element ID required")
	}
	if e.Type == "" {
		return Errorf(EINVALID, "element type required")
	}
	return nil
}

// ExternalLink is a reference to a URL outside the crawl's scope.
// External links are never fetched.
type ExternalLink struct {
	URL       string
	Domain    string
	FirstSeen time.Time

	// ReferenceCount is the number of distinct pages linking to the URL.
	ReferenceCount int
}

// NodeKind tags the variant held by a GraphNode.
type NodeKind string

// Node kinds.
const (
	NodePage     NodeKind = "page"
	NodeElement  NodeKind = "element"
	NodeExternal NodeKind = "external"
)

// GraphNode is one node of the graph. Exactly one of Page, Element, or
// External is set, matching Kind.
type GraphNode struct {
	Kind     NodeKind
	ID       string
	Page     *Page
	Element  *Element
	External *ExternalLink
}

// Label returns a short human-readable name for the node.
func (n *GraphNode) Label() string {
	switch n.Kind {
	case NodePage:
		if n.Page != nil && n.Page.Title != "" {
			return n.Page.Title
		}
	case NodeElement:
		if n.Element != nil {
			if n.Element.Text != "" {
				return n.Element.Text
			}
			if n.Element.Selector != "" {
				return n.Element.Selector
			}
		}
	}
	return n.ID
}
