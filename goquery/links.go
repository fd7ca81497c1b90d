package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitegraph"
)

// nonNavigable lists href schemes that never lead to a document.
var nonNavigable = []string{"javascript:", "mailto:", "tel:", "data:"}

// extractLinks returns the unique in-scope and external links of doc in
// document order. Rejected links are dropped. The first anchor text seen for
// a URL wins.
func extractLinks(doc *goquery.Document, base string, scope *sitegraph.Scope) []sitegraph.Link {
	var links []sitegraph.Link
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !navigable(href) {
			return
		}
		u, s := scope.Classify(href, base)
		if s == sitegraph.ScopeRejected || seen[u] {
			return
		}
		seen[u] = true
		links = append(links, sitegraph.Link{
			URL:   u,
			Text:  truncate(collapse(visibleNodeText(sel)), maxElementText),
			Scope: s,
		})
	})

	return links
}

// navigable reports whether href can point at another document.
func navigable(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	for _, prefix := range nonNavigable {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}
