package trafilatura_test

import (
	"testing"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/goquery"
	"github.com/fwojciec/sitegraph/mock"
	"github.com/fwojciec/sitegraph/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://docs.example.com/intro"

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("narrows text to main content", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Introduction | My Project</title></head>
<body>
<nav class="navbar">
<a href="/">My Project</a>
<a href="/docs">Docs</a>
</nav>
<main>
<article>
<h1>Introduction</h1>
<p>Welcome to the documentation. This guide will help you get started with the project.</p>
<h2>Prerequisites</h2>
<p>Before you begin, make sure you have Node.js installed on your machine.</p>
</article>
</main>
<footer class="footer"><p>Copyright 2024 Example Corp</p></footer>
</body>
</html>`

		ext := trafilatura.NewExtractor(goquery.NewExtractor())
		content := ext.Extract(html, pageURL, nil)

		require.NotNil(t, content)
		assert.Contains(t, content.Text, "Welcome to the documentation")
		assert.Contains(t, content.Text, "Prerequisites")
		assert.NotContains(t, content.Text, "Copyright 2024 Example Corp")
		assert.Equal(t, "Introduction | My Project", content.Title)
	})

	t.Run("keeps links and elements from the wrapped extractor", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Docs</title></head><body>
<nav><a href="/docs/install">Installation</a></nav>
<article><p>Article body with substantive content for readers of this page.</p>
<button>Copy</button></article>
</body></html>`

		ext := trafilatura.NewExtractor(goquery.NewExtractor())
		content := ext.Extract(html, pageURL, nil)

		require.Len(t, content.Links, 1)
		assert.Equal(t, "https://docs.example.com/docs/install", content.Links[0].URL)
		require.Len(t, content.Elements, 1)
		assert.Equal(t, "Copy", content.Elements[0].Text)
	})

	t.Run("fills missing title from trafilatura metadata", func(t *testing.T) {
		t.Parallel()

		base := &mock.Extractor{
			ExtractFn: func(string, string, *sitegraph.Scope) *sitegraph.PageContent {
				return &sitegraph.PageContent{Text: "raw"}
			},
		}
		html := `<html><head><title>Meta Title</title></head><body><article><p>Body text long enough to count as main content for the page.</p></article></body></html>`

		content := trafilatura.NewExtractor(base).Extract(html, pageURL, nil)

		assert.Equal(t, "Meta Title", content.Title)
	})

	t.Run("caps text", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><article><p>Simple content that is long enough to be kept.</p></article></body></html>`

		content := trafilatura.NewExtractor(goquery.NewExtractor(), trafilatura.WithTextLimit(6)).Extract(html, pageURL, nil)

		assert.Equal(t, "Simple", content.Text)
	})

	t.Run("passes empty input through", func(t *testing.T) {
		t.Parallel()

		content := trafilatura.NewExtractor(goquery.NewExtractor()).Extract("", pageURL, nil)

		require.NotNil(t, content)
		assert.Empty(t, content.Text)
	})
}
