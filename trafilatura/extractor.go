// Package trafilatura decorates a sitegraph.Extractor so that page text is
// limited to the main content identified by go-trafilatura.
package trafilatura

import (
	"strings"

	"github.com/fwojciec/sitegraph"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements sitegraph.Extractor at compile time.
var _ sitegraph.Extractor = (*Extractor)(nil)

// Extractor replaces the text produced by the wrapped extractor with the
// page's main content. Links, elements, and metadata still come from the
// wrapped extractor, since navigation and boilerplate links are part of the
// site graph. When trafilatura finds no main content, the wrapped
// extractor's text is kept.
type Extractor struct {
	base      sitegraph.Extractor
	textLimit int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTextLimit caps the main-content text at n runes. Zero disables the cap.
func WithTextLimit(n int) Option {
	return func(e *Extractor) {
		e.textLimit = n
	}
}

// NewExtractor wraps base.
func NewExtractor(base sitegraph.Extractor, opts ...Option) *Extractor {
	e := &Extractor{base: base}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the wrapped extractor and then narrows its text.
func (e *Extractor) Extract(rawHTML, pageURL string, scope *sitegraph.Scope) *sitegraph.PageContent {
	content := e.base.Extract(rawHTML, pageURL, scope)
	if content == nil || rawHTML == "" {
		return content
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		EnableFallback: true,
	})
	if err != nil || result == nil {
		return content
	}

	if result.ContentNode != nil {
		if text := nodeText(result.ContentNode); text != "" {
			content.Text = truncate(text, e.textLimit)
		}
	}
	if content.Title == "" {
		content.Title = strings.TrimSpace(result.Metadata.Title)
	}

	return content
}

// nodeText returns the whitespace-collapsed text below n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
