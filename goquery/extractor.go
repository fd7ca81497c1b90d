// Package goquery implements sitegraph.Extractor with goquery and the
// golang.org/x/net/html tokenizer.
package goquery

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitegraph"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTextLimit caps extracted body text, in runes.
const DefaultTextLimit = 50000

// Metadata field caps, in runes.
const (
	maxTitleLen       = 500
	maxDescriptionLen = 1000
	maxKeywordsLen    = 500
)

// Ensure Extractor implements sitegraph.Extractor at compile time.
var _ sitegraph.Extractor = (*Extractor)(nil)

// Extractor extracts metadata, headings, visible text, links, and
// interactive elements from HTML.
type Extractor struct {
	textLimit int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTextLimit caps the extracted body text at n runes.
// Defaults to DefaultTextLimit (50,000) if not specified.
func WithTextLimit(n int) Option {
	return func(e *Extractor) {
		e.textLimit = n
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{textLimit: DefaultTextLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses rawHTML fetched from pageURL. When scope is nil, links are
// classified against a scope rooted at pageURL.
func (e *Extractor) Extract(rawHTML, pageURL string, scope *sitegraph.Scope) (content *sitegraph.PageContent) {
	defer func() {
		if r := recover(); r != nil {
			content = &sitegraph.PageContent{ParseError: fmt.Sprintf("extract: %v", r)}
		}
	}()

	content = &sitegraph.PageContent{}

	if scope == nil {
		s, err := sitegraph.NewScope(pageURL, nil)
		if err != nil {
			content.ParseError = sitegraph.ErrorMessage(err)
			return content
		}
		scope = s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		content.ParseError = fmt.Sprintf("parse HTML: %v", err)
		return content
	}

	// Relative references resolve against <base href> when present.
	base := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		base = resolveBase(pageURL, href)
	}

	content.Title = truncate(extractTitle(doc), maxTitleLen)
	content.Description = truncate(metaContent(doc, "description"), maxDescriptionLen)
	content.Keywords = truncate(metaContent(doc, "keywords"), maxKeywordsLen)
	content.Headings = extractHeadings(doc)
	content.Text = truncate(visibleText(doc), e.textLimit)
	content.Links = extractLinks(doc, base, scope)
	content.Elements = extractElements(doc, pageURL, base, scope)

	data, err := extractStructuredData(doc)
	content.StructuredData = data
	if err != nil {
		content.ParseError = err.Error()
	}

	return content
}

// resolveBase resolves a <base href> against the page URL. The result keeps
// its trailing slash, which decides how relative references resolve.
func resolveBase(pageURL, href string) string {
	page, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	resolved := page.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return pageURL
	}
	return resolved.String()
}

// extractTitle prefers <title>, then og:title, then the first <h1>.
func extractTitle(doc *goquery.Document) string {
	if t := collapse(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(t) != "" {
		return collapse(t)
	}
	return collapse(doc.Find("h1").First().Text())
}

// metaContent returns <meta name=...> content, falling back to og:<name>.
func metaContent(doc *goquery.Document, name string) string {
	var value string
	doc.Find("meta[name]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if n, _ := sel.Attr("name"); strings.EqualFold(n, name) {
			value, _ = sel.Attr("content")
			return false
		}
		return true
	})
	if strings.TrimSpace(value) == "" {
		value, _ = doc.Find(`meta[property="og:` + name + `"]`).Attr("content")
	}
	return collapse(value)
}

func extractHeadings(doc *goquery.Document) map[int][]string {
	headings := make(map[int][]string)
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		text := collapse(visibleNodeText(sel))
		if text == "" {
			return
		}
		level := int(goquery.NodeName(sel)[1] - '0')
		headings[level] = append(headings[level], text)
	})
	return headings
}

// extractStructuredData decodes JSON-LD blocks. Malformed blocks are
// skipped and reported; well-formed blocks are still returned.
func extractStructuredData(doc *goquery.Document) ([]map[string]any, error) {
	var data []map[string]any
	var failures []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			failures = append(failures, fmt.Sprintf("block %d: %v", i, err))
			return
		}
		switch t := v.(type) {
		case map[string]any:
			data = append(data, t)
		case []any:
			for _, item := range t {
				if m, ok := item.(map[string]any); ok {
					data = append(data, m)
				}
			}
		}
	})
	if len(failures) > 0 {
		return data, fmt.Errorf("structured data: %s", strings.Join(failures, "; "))
	}
	return data, nil
}

// skipText lists elements whose content is never visible text.
var skipText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Head:     true,
}

// blockElements are separated from neighbors by whitespace.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Button: true, atom.Dd: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true,
	atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true, atom.Option: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true, atom.Td: true,
	atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// visibleText returns the whitespace-collapsed text of the document body.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	return collapse(visibleNodeText(body))
}

func visibleNodeText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if skipText[n.DataAtom] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte(' ')
	}
}

// collapse trims s and replaces each run of whitespace with one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate caps s at n runes. A non-positive n disables the cap.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
