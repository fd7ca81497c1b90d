//go:build integration

package neo4j_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openStore connects to the database named by NEO4J_URI and empties it.
// Tests in this file share one database and do not run in parallel.
func openStore(t *testing.T) *neo4j.GraphStore {
	t.Helper()

	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}
	ctx := context.Background()
	store, err := neo4j.Open(ctx, uri, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"))
	require.NoError(t, err)
	require.NoError(t, store.Reset(ctx))
	t.Cleanup(func() {
		_ = store.Reset(ctx)
		_ = store.Close(ctx)
	})
	return store
}

func page(url, hash string, vec []float32) *sitegraph.Page {
	return &sitegraph.Page{
		URL:         url,
		Title:       url,
		ContentHash: hash,
		Embedding:   vec,
		StatusCode:  200,
		LastCrawled: time.Now().UTC(),
	}
}

func TestGraphStore_Upserts(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.UpsertPage(ctx, page("https://shop.example/", "h", []float32{1, 0}))
	require.NoError(t, err)
	_, err = store.UpsertPage(ctx, page("https://shop.example/", "h", nil))
	require.NoError(t, err)

	node, err := store.FindNode(ctx, "https://shop.example/")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, node.Page.Embedding)

	ext := "https://partner.example/"
	require.NoError(t, store.UpsertRelationship(ctx, "https://shop.example/", ext, sitegraph.LinksToExternal))
	require.NoError(t, store.UpsertRelationship(ctx, "https://shop.example/", ext, sitegraph.LinksToExternal))
	node, err = store.FindNode(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, 1, node.External.ReferenceCount)

	err = store.UpsertElement(ctx, "https://shop.example/missing", &sitegraph.Element{ID: "x", Type: sitegraph.ElementButton})
	assert.Equal(t, sitegraph.ENOTFOUND, sitegraph.ErrorCode(err))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 1, stats.ExternalLinks)
	assert.Equal(t, 1, stats.Relationships[sitegraph.LinksToExternal])
}

func TestGraphStore_FindShortestPath(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, u := range []string{"https://shop.example/", "https://shop.example/products", "https://shop.example/island"} {
		_, err := store.UpsertPage(ctx, page(u, "h", nil))
		require.NoError(t, err)
	}
	require.NoError(t, store.UpsertRelationship(ctx, "https://shop.example/", "https://shop.example/products", sitegraph.LinksTo))
	require.NoError(t, store.UpsertElement(ctx, "https://shop.example/products", &sitegraph.Element{ID: "buy", Type: sitegraph.ElementButton, Text: "Buy"}))
	require.NoError(t, store.UpsertRelationship(ctx, "buy", "https://shop.example/checkout", sitegraph.NavigatesTo))

	res, err := store.FindShortestPath(ctx, "https://shop.example/checkout", "https://shop.example/", 10)
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 3, res.Hops())
	assert.Equal(t, sitegraph.NavigatesTo, res.Edges[0].Type)
	assert.Equal(t, "buy", res.Edges[0].From)

	res, err = store.FindShortestPath(ctx, "https://shop.example/", "https://shop.example/island", 10)
	require.NoError(t, err)
	assert.False(t, res.Found)

	_, err = store.FindShortestPath(ctx, "https://shop.example/", "https://shop.example/nowhere", 10)
	assert.Equal(t, sitegraph.ENOTFOUND, sitegraph.ErrorCode(err))
}

func TestGraphStore_FindSimilarNodes(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.UpsertPage(ctx, page("https://a.example/x", "h", []float32{1, 0}))
	require.NoError(t, err)
	_, err = store.UpsertPage(ctx, page("https://a.example/y", "h", []float32{0, 1}))
	require.NoError(t, err)

	got, err := store.FindSimilarNodes(ctx, []float32{0.9, 0.1}, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://a.example/x", got[0].Page.URL)

	_, err = store.FindSimilarNodes(ctx, []float32{0, 0}, 5)
	assert.Equal(t, sitegraph.EINVALID, sitegraph.ErrorCode(err))
}
