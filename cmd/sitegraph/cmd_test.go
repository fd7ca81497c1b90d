package main_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/sitegraph"
	main "github.com/fwojciec/sitegraph/cmd/sitegraph"
	"github.com/fwojciec/sitegraph/crawl"
	"github.com/fwojciec/sitegraph/goquery"
	"github.com/fwojciec/sitegraph/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints progress and summary", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Crawler: &crawl.Crawler{
				Fetcher: &mock.Fetcher{
					FetchFn: func(_ context.Context, url string) (*sitegraph.Response, error) {
						return &sitegraph.Response{URL: url, StatusCode: 200, ContentType: "text/html", Body: "<html><body>hi</body></html>"}, nil
					},
				},
				Extractor: goquery.NewExtractor(),
				Store: &mock.GraphStore{
					FindNodeFn: func(context.Context, string) (*sitegraph.GraphNode, error) {
						return nil, sitegraph.Errorf(sitegraph.ENOTFOUND, "not found")
					},
					UpsertPageFn: func(_ context.Context, p *sitegraph.Page) (string, error) {
						return p.URL, nil
					},
				},
				RetryDelays: []time.Duration{},
			},
		}

		cmd := &main.CrawlCmd{URL: "https://example.com", MaxPages: 10, MaxDepth: 2}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "[1] https://example.com/")
		assert.Contains(t, stdout.String(), "Crawled 1 pages (0 failed, 0 skipped)")
	})

	t.Run("rejects invalid limits before crawling", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
		}

		cmd := &main.CrawlCmd{URL: "https://example.com", MaxPages: 0, MaxDepth: 2}
		err := cmd.Run(deps)

		assert.Equal(t, sitegraph.EINVALID, sitegraph.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error:")
	})

	t.Run("reports failures on stderr", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Crawler: &crawl.Crawler{
				Fetcher: &mock.Fetcher{
					FetchFn: func(_ context.Context, url string) (*sitegraph.Response, error) {
						return &sitegraph.Response{URL: url, StatusCode: 404}, nil
					},
				},
				Extractor:   goquery.NewExtractor(),
				Store:       &mock.GraphStore{},
				RetryDelays: []time.Duration{},
			},
		}

		cmd := &main.CrawlCmd{URL: "https://example.com", MaxPages: 10, MaxDepth: 2}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stderr.String(), "fail https://example.com/: HTTP 404")
	})
}

func TestNavigateCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints navigation as JSON", func(t *testing.T) {
		t.Parallel()

		var got sitegraph.NavigationRequest
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Navigator: &mock.Navigator{
				NavigateFn: func(_ context.Context, req sitegraph.NavigationRequest) (*sitegraph.Navigation, error) {
					got = req
					return &sitegraph.Navigation{
						Status:     sitegraph.StatusError,
						Message:    "No matching destinations found",
						Path:       []sitegraph.Step{},
						Alternates: []sitegraph.Match{},
					}, nil
				},
			},
		}

		cmd := &main.NavigateCmd{Query: "refund", Start: "https://shop.example/", Keywords: []string{"money"}}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "refund", got.Query)
		assert.Equal(t, "https://shop.example/", got.StartID)
		assert.Equal(t, []string{"money"}, got.Keywords)
		assert.JSONEq(t, `{"status":"error","message":"No matching destinations found","path":[],"alternates":[]}`, stdout.String())
	})

	t.Run("returns navigator errors", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Navigator: &mock.Navigator{
				NavigateFn: func(context.Context, sitegraph.NavigationRequest) (*sitegraph.Navigation, error) {
					return nil, sitegraph.Errorf(sitegraph.EINVALID, "query required")
				},
			},
		}

		err := (&main.NavigateCmd{}).Run(deps)

		assert.Equal(t, sitegraph.EINVALID, sitegraph.ErrorCode(err))
		assert.Contains(t, stderr.String(), "query required")
	})
}

func TestStatsCmd_Run(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	deps := &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: &bytes.Buffer{},
		Store: &mock.GraphStore{
			StatsFn: func(context.Context) (*sitegraph.GraphStats, error) {
				return &sitegraph.GraphStats{
					Pages:         4,
					CrawledPages:  3,
					Elements:      2,
					ExternalLinks: 1,
					Relationships: map[sitegraph.RelationType]int{sitegraph.LinksTo: 5},
				}, nil
			},
		},
	}

	err := (&main.StatsCmd{}).Run(deps)

	require.NoError(t, err)
	out := stdout.String()
	assert.Contains(t, out, "Pages:          4 (3 crawled)")
	assert.Contains(t, out, "External links: 1")
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "LINKS_TO ") {
			assert.True(t, strings.HasSuffix(line, " 5"), line)
		}
	}
	assert.Contains(t, out, "SIMILAR_TO")
}

type resetFunc func(ctx context.Context) error

func (f resetFunc) Reset(ctx context.Context) error { return f(ctx) }

func TestResetCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("requires --force flag", func(t *testing.T) {
		t.Parallel()

		called := false
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   &bytes.Buffer{},
			Stderr:   stderr,
			Resetter: resetFunc(func(context.Context) error { called = true; return nil }),
		}

		err := (&main.ResetCmd{}).Run(deps)

		require.Error(t, err)
		assert.False(t, called)
		assert.Contains(t, stderr.String(), "--force")
	})

	t.Run("reports store errors", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Resetter: resetFunc(func(context.Context) error {
				return sitegraph.Errorf(sitegraph.EUNAVAILABLE, "database offline")
			}),
		}

		err := (&main.ResetCmd{Force: true}).Run(deps)

		assert.Equal(t, sitegraph.EUNAVAILABLE, sitegraph.ErrorCode(err))
		assert.Contains(t, stderr.String(), "database offline")
	})
}

func TestChooseFetcher(t *testing.T) {
	t.Parallel()

	scope, err := sitegraph.NewScope("https://app.example", nil)
	require.NoError(t, err)
	extractor := goquery.NewExtractor()

	fetcher := func(body string, err error) *mock.Fetcher {
		return &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*sitegraph.Response, error) {
				if err != nil {
					return nil, err
				}
				return &sitegraph.Response{URL: url, StatusCode: 200, ContentType: "text/html", Body: body}, nil
			},
		}
	}
	shell := `<html><body><div id="root"></div></body></html>`
	app := `<html><body><div id="root"><h1>Dashboard</h1><p>Your projects and recent activity appear here.</p>` +
		`<a href="/a">A</a><a href="/b">B</a><a href="/c">C</a></div></body></html>`

	t.Run("picks browser when rendering adds content", func(t *testing.T) {
		t.Parallel()

		plain, browser := fetcher(shell, nil), fetcher(app, nil)

		got := main.ChooseFetcher(context.Background(), scope, plain, browser, extractor)

		assert.Same(t, browser, got)
	})

	t.Run("keeps plain fetcher for static sites", func(t *testing.T) {
		t.Parallel()

		plain, browser := fetcher(app, nil), fetcher(app, nil)

		got := main.ChooseFetcher(context.Background(), scope, plain, browser, extractor)

		assert.Same(t, plain, got)
	})

	t.Run("keeps plain fetcher when browser fails", func(t *testing.T) {
		t.Parallel()

		plain, browser := fetcher(shell, nil), fetcher("", errors.New("chrome crashed"))

		got := main.ChooseFetcher(context.Background(), scope, plain, browser, extractor)

		assert.Same(t, plain, got)
	})

	t.Run("picks browser when plain fetch fails", func(t *testing.T) {
		t.Parallel()

		plain, browser := fetcher("", errors.New("connection reset")), fetcher(app, nil)

		got := main.ChooseFetcher(context.Background(), scope, plain, browser, extractor)

		assert.Same(t, browser, got)
	})
}
