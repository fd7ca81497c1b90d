package goquery_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://shop.example.com/products"

func mustScope(t *testing.T, blacklist ...string) *sitegraph.Scope {
	t.Helper()
	s, err := sitegraph.NewScope("https://shop.example.com/", blacklist)
	require.NoError(t, err)
	return s
}

func TestExtractor_Metadata(t *testing.T) {
	t.Parallel()

	t.Run("reads title description and keywords", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<title>  Products   | Shop </title>
			<meta name="Description" content="All our products">
			<meta name="keywords" content="shoes, hats">
		</head><body><h1>Catalog</h1></body></html>`

		content := goquery.NewExtractor().Extract(html, pageURL, mustScope(t))

		assert.Equal(t, "Products | Shop", content.Title)
		assert.Equal(t, "All our products", content.Description)
		assert.Equal(t, "shoes, hats", content.Keywords)
		assert.Empty(t, content.ParseError)
	})

	t.Run("falls back to og:title then h1", func(t *testing.T) {
		t.Parallel()

		og := `<html><head><meta property="og:title" content="OG Title">
			<meta property="og:description" content="OG description"></head>
			<body><h1>Heading</h1></body></html>`
		content := goquery.NewExtractor().Extract(og, pageURL, mustScope(t))
		assert.Equal(t, "OG Title", content.Title)
		assert.Equal(t, "OG description", content.Description)

		h1 := `<html><body><h1>Only <em>Heading</em></h1></body></html>`
		content = goquery.NewExtractor().Extract(h1, pageURL, mustScope(t))
		assert.Equal(t, "Only Heading", content.Title)
	})

	t.Run("collects headings by level", func(t *testing.T) {
		t.Parallel()

		html := `<body><h1>Top</h1><h2>First</h2><h2>Second</h2><h3> </h3><h6>Deep</h6></body>`

		content := goquery.NewExtractor().Extract(html, pageURL, mustScope(t))

		assert.Equal(t, []string{"Top"}, content.Headings[1])
		assert.Equal(t, []string{"First", "Second"}, content.Headings[2])
		assert.Empty(t, content.Headings[3])
		assert.Equal(t, []string{"Deep"}, content.Headings[6])
	})
}

func TestExtractor_Text(t *testing.T) {
	t.Parallel()

	t.Run("skips non-visible elements and separates blocks", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>T</title><style>.x{}</style></head><body>
			<script>var hidden = 1;</script>
			<noscript>enable js</noscript>
			<p>First paragraph</p><p>Second</p>
			<div>Inline <b>bold</b>text</div>
			<template><p>templated</p></template>
			<svg><text>vector</text></svg>
		</body></html>`

		content := goquery.NewExtractor().Extract(html, pageURL, mustScope(t))

		assert.Equal(t, "First paragraph Second Inline boldtext", content.Text)
	})

	t.Run("caps text at the configured limit", func(t *testing.T) {
		t.Parallel()

		html := `<body><p>` + strings.Repeat("é", 100) + `</p></body>`

		content := goquery.NewExtractor(goquery.WithTextLimit(10)).Extract(html, pageURL, mustScope(t))

		assert.Equal(t, strings.Repeat("é", 10), content.Text)
	})
}

func TestExtractor_Links(t *testing.T) {
	t.Parallel()

	t.Run("classifies and deduplicates links", func(t *testing.T) {
		t.Parallel()

		html := `<body>
			<a href="/checkout">Checkout</a>
			<a href="checkout/">Checkout again</a>
			<a href="/products/shoes">Shoes</a>
			<a href="https://shop.example.com/checkout#top">Checkout anchor</a>
			<a href="https://partner.example.org/deal">Partner</a>
			<a href="/logo.png">Logo</a>
			<a href="/admin/users">Admin</a>
			<a href="mailto:help@example.com">Mail</a>
			<a href="javascript:void(0)">JS</a>
			<a href="#section">Anchor</a>
		</body>`

		content := goquery.NewExtractor().Extract(html, pageURL, mustScope(t, "/admin"))

		require.Len(t, content.Links, 3)
		assert.Equal(t, sitegraph.Link{
			URL:   "https://shop.example.com/checkout",
			Text:  "Checkout",
			Scope: sitegraph.ScopeInternal,
		}, content.Links[0])
		assert.Equal(t, "https://shop.example.com/products/shoes", content.Links[1].URL)
		assert.Equal(t, sitegraph.ScopeInternal, content.Links[1].Scope)
		assert.Equal(t, "https://partner.example.org/deal", content.Links[2].URL)
		assert.Equal(t, sitegraph.ScopeExternal, content.Links[2].Scope)

		assert.Len(t, content.InternalLinks(), 2)
		assert.Len(t, content.ExternalLinks(), 1)
	})

	t.Run("resolves against base href", func(t *testing.T) {
		t.Parallel()

		html := `<head><base href="https://shop.example.com/docs/"></head>
			<body><a href="intro">Intro</a></body>`

		content := goquery.NewExtractor().Extract(html, pageURL, mustScope(t))

		require.Len(t, content.Links, 1)
		assert.Equal(t, "https://shop.example.com/docs/intro", content.Links[0].URL)
	})

	t.Run("uses page origin when scope is nil", func(t *testing.T) {
		t.Parallel()

		html := `<body><a href="/about">About</a><a href="https://other.example/">Other</a></body>`

		content := goquery.NewExtractor().Extract(html, pageURL, nil)

		require.Len(t, content.Links, 2)
		assert.Equal(t, sitegraph.ScopeInternal, content.Links[0].Scope)
		assert.Equal(t, sitegraph.ScopeExternal, content.Links[1].Scope)
	})
}

func TestExtractor_Elements(t *testing.T) {
	t.Parallel()

	t.Run("finds buttons inputs forms and clickables", func(t *testing.T) {
		t.Parallel()

		html := `<body>
			<button id="buy" onclick="location.href='/checkout'">Buy now</button>
			<input type="submit" value="Send">
			<form action="/search" method="post"><input type="text" name="q"></form>
			<div class="clickable" data-href="/cart">Cart</div>
			<span tabindex="-1">Not interactive</span>
			<a role="button" aria-label="Close"></a>
		</body>`

		content := goquery.NewExtractor().Extract(html, pageURL, mustScope(t))

		require.Len(t, content.Elements, 5)

		buy := content.Elements[0]
		assert.Equal(t, sitegraph.ElementButton, buy.Type)
		assert.Equal(t, "Buy now", buy.Text)
		assert.Equal(t, "button#buy", buy.Selector)
		assert.Equal(t, "https://shop.example.com/checkout", buy.NavigatesTo)
		assert.Equal(t, pageURL, buy.PageURL)
		assert.NoError(t, buy.Validate())

		send := content.Elements[1]
		assert.Equal(t, sitegraph.ElementInput, send.Type)
		assert.Equal(t, "Send", send.Text)
		assert.Empty(t, send.NavigatesTo)

		form := content.Elements[2]
		assert.Equal(t, sitegraph.ElementForm, form.Type)
		assert.Equal(t, "https://shop.example.com/search", form.Action)
		assert.Equal(t, "POST", form.Method)
		assert.Equal(t, "https://shop.example.com/search", form.NavigatesTo)

		cart := content.Elements[3]
		assert.Equal(t, sitegraph.ElementClickable, cart.Type)
		assert.Equal(t, "div.clickable", cart.Selector)
		assert.Equal(t, "https://shop.example.com/cart", cart.NavigatesTo)

		closeBtn := content.Elements[4]
		assert.Equal(t, sitegraph.ElementButton, closeBtn.Type)
		assert.Equal(t, "Close", closeBtn.Text)
	})

	t.Run("element IDs are stable and unique", func(t *testing.T) {
		t.Parallel()

		html := `<body><button>Add</button><button>Add</button><button id="x">Add</button></body>`
		ext := goquery.NewExtractor()

		first := ext.Extract(html, pageURL, mustScope(t))
		second := ext.Extract(html, pageURL, mustScope(t))

		require.Len(t, first.Elements, 3)
		ids := map[string]bool{}
		for i, el := range first.Elements {
			assert.Equal(t, el.ID, second.Elements[i].ID)
			ids[el.ID] = true
		}
		assert.Len(t, ids, 3)
		assert.Equal(t, goquery.ElementID(pageURL, "id:x"), first.Elements[2].ID)

		other := ext.Extract(html, "https://shop.example.com/other", mustScope(t))
		assert.NotEqual(t, first.Elements[0].ID, other.Elements[0].ID)
	})

	t.Run("ignores navigation back to the same page or out of scope", func(t *testing.T) {
		t.Parallel()

		html := `<body>
			<button data-href="/products">Self</button>
			<button data-href="https://other.example/x">Away</button>
		</body>`

		content := goquery.NewExtractor().Extract(html, pageURL, mustScope(t))

		require.Len(t, content.Elements, 2)
		assert.Empty(t, content.Elements[0].NavigatesTo)
		assert.Empty(t, content.Elements[1].NavigatesTo)
	})
}

func TestExtractor_StructuredData(t *testing.T) {
	t.Parallel()

	t.Run("decodes JSON-LD objects and arrays", func(t *testing.T) {
		t.Parallel()

		html := `<head>
			<script type="application/ld+json">{"@type":"Product","name":"Hat"}</script>
			<script type="application/ld+json">[{"@type":"Offer"},{"@type":"Brand"}]</script>
		</head><body></body>`

		content := goquery.NewExtractor().Extract(html, pageURL, mustScope(t))

		require.Len(t, content.StructuredData, 3)
		assert.Equal(t, "Product", content.StructuredData[0]["@type"])
		assert.Equal(t, "Brand", content.StructuredData[2]["@type"])
		assert.Empty(t, content.ParseError)
	})

	t.Run("malformed block is reported but extraction continues", func(t *testing.T) {
		t.Parallel()

		html := `<head><title>Still here</title>
			<script type="application/ld+json">{not json</script>
			<script type="application/ld+json">{"@type":"Thing"}</script>
		</head><body><a href="/next">Next</a></body>`

		content := goquery.NewExtractor().Extract(html, pageURL, mustScope(t))

		assert.Equal(t, "Still here", content.Title)
		assert.Len(t, content.StructuredData, 1)
		assert.Len(t, content.Links, 1)
		assert.Contains(t, content.ParseError, "structured data")
	})
}

func TestExtractor_EmptyInput(t *testing.T) {
	t.Parallel()

	content := goquery.NewExtractor().Extract("", pageURL, mustScope(t))

	require.NotNil(t, content)
	assert.Empty(t, content.Title)
	assert.Empty(t, content.Text)
	assert.Empty(t, content.Links)
	assert.Empty(t, content.Elements)
}
