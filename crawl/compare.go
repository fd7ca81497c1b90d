package crawl

import "github.com/fwojciec/sitegraph"

// NeedsRendering compares a page fetched over plain HTTP with the same page
// rendered by a browser. It returns true when rendering reveals
// significantly more text (>50%) or in-scope links, suggesting the site
// builds its content with JavaScript. A failed static fetch also returns
// true when the rendered fetch succeeded.
func NeedsRendering(static, rendered *sitegraph.Response, extractor sitegraph.Extractor, scope *sitegraph.Scope) bool {
	if rendered == nil || Classify(rendered, nil) != OutcomeSuccess {
		return false
	}
	if static == nil || Classify(static, nil) != OutcomeSuccess {
		return true
	}

	staticContent := extractor.Extract(static.Body, scope.Origin(), scope)
	renderedContent := extractor.Extract(rendered.Body, scope.Origin(), scope)

	if staticContent.ParseError != "" && renderedContent.ParseError == "" {
		return true
	}

	staticLen := len(staticContent.Text)
	renderedLen := len(renderedContent.Text)
	if staticLen == 0 && renderedLen > 0 {
		return true
	}
	if float64(renderedLen) > float64(staticLen)*1.5 {
		return true
	}

	staticLinks := len(staticContent.InternalLinks())
	renderedLinks := len(renderedContent.InternalLinks())
	return renderedLinks > staticLinks*2 && renderedLinks-staticLinks >= 3
}
