package mock

import "github.com/fwojciec/sitegraph"

var _ sitegraph.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of sitegraph.Extractor.
type Extractor struct {
	ExtractFn func(rawHTML, pageURL string, scope *sitegraph.Scope) *sitegraph.PageContent
}

func (e *Extractor) Extract(rawHTML, pageURL string, scope *sitegraph.Scope) *sitegraph.PageContent {
	return e.ExtractFn(rawHTML, pageURL, scope)
}
