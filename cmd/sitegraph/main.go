package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/crawl"
	"github.com/fwojciec/sitegraph/embedding"
	"github.com/fwojciec/sitegraph/gemini"
	"github.com/fwojciec/sitegraph/goquery"
	sghttp "github.com/fwojciec/sitegraph/http"
	"github.com/fwojciec/sitegraph/navigate"
	"github.com/fwojciec/sitegraph/neo4j"
	"github.com/fwojciec/sitegraph/openai"
	"github.com/fwojciec/sitegraph/prometheus"
	sgslog "github.com/fwojciec/sitegraph/slog"
	"github.com/fwojciec/sitegraph/sqlite"
	"github.com/fwojciec/sitegraph/trafilatura"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run(). The --db flag overrides it.
	DBPath string

	// EmbeddingService replaces the provider selected by --embedder.
	// Used for end-to-end testing.
	EmbeddingService sitegraph.EmbeddingService

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close releases the store and fetchers opened by Run, newest first.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i]())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitegraph"),
		kong.Description("Crawl a website into a graph and find paths through it"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'sitegraph --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	var logger *slog.Logger
	if cli.Verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if err := m.openStore(ctx, cli, deps, logger); err != nil {
		return err
	}
	defer m.Close()

	switch cmd {
	case "crawl":
		if cli.Crawl.MetricsAddr != "" {
			deps.Metrics = prometheus.NewMetrics()
		}
		embedder, err := m.newEmbedder(ctx, cli, deps, logger, false)
		if err != nil {
			return err
		}
		deps.Crawler, err = m.newCrawler(ctx, cli, embedder, deps, logger)
		if err != nil {
			return err
		}

	case "navigate", "similar":
		embedder, err := m.newEmbedder(ctx, cli, deps, logger, true)
		if err != nil {
			return err
		}
		deps.Matcher = navigate.NewMatcher(embedder, deps.Store, embedding.NewCache())
		if cmd == "navigate" {
			resolver := navigate.NewResolver(deps.Store,
				navigate.WithHomeID(cli.Navigate.Home),
				navigate.WithMaxHops(cli.Navigate.MaxHops),
			)
			navigator := navigate.NewNavigator(deps.Matcher, resolver)
			navigator.Limit = cli.Navigate.Limit
			deps.Navigator = navigator
		}
	}

	return kongCtx.Run(deps)
}

// openStore connects the graph store: Neo4j when a URI is configured,
// SQLite otherwise.
func (m *Main) openStore(ctx context.Context, cli *CLI, deps *Dependencies, logger *slog.Logger) error {
	var store sitegraph.GraphStore

	if cli.Neo4jURI != "" {
		var opts []neo4j.Option
		if cli.Neo4jDatabase != "" {
			opts = append(opts, neo4j.WithDatabase(cli.Neo4jDatabase))
		}
		graph, err := neo4j.Open(ctx, cli.Neo4jURI, cli.Neo4jUser, cli.Neo4jPassword, opts...)
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: check NEO4J_URI, NEO4J_USER, and NEO4J_PASSWORD")
			return fmt.Errorf("failed to connect to neo4j at %q: %w", cli.Neo4jURI, err)
		}
		m.closers = append(m.closers, func() error { return graph.Close(context.Background()) })
		store, deps.Resetter = graph, graph
	} else {
		path := m.DBPath
		if cli.DB != "" {
			path = cli.DB
		}
		db := sqlite.NewDB(path)
		if err := db.Open(); err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Set SITEGRAPH_DB to use a different database path")
			return fmt.Errorf("failed to open database at %q: %w", path, err)
		}
		m.closers = append(m.closers, db.Close)
		graph := sqlite.NewGraphStore(db)
		store, deps.Resetter = graph, graph
	}

	if logger != nil {
		store = sgslog.NewLoggingGraphStore(store, logger)
	}
	deps.Store = store
	return nil
}

// newEmbedder builds the resilient embedding client over the configured
// provider. It returns nil without error when embeddings are disabled and
// not required.
func (m *Main) newEmbedder(ctx context.Context, cli *CLI, deps *Dependencies, logger *slog.Logger, required bool) (sitegraph.Embedder, error) {
	if cli.Embedder == "none" {
		if required {
			return nil, sitegraph.Errorf(sitegraph.EINVALID, "this command needs an embedding provider; use --embedder gemini or --embedder openai")
		}
		return nil, nil
	}

	service := m.EmbeddingService
	maxChars := gemini.DefaultMaxChars
	if service == nil {
		var err error
		service, maxChars, err = newProvider(ctx, cli)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "Hint: set %s or choose another --embedder\n", apiKeyEnv(cli.Embedder))
			return nil, fmt.Errorf("failed to create %s embedder: %w", cli.Embedder, err)
		}
	}

	if deps.Metrics != nil {
		service = prometheus.NewEmbeddingService(service, deps.Metrics)
	}
	if logger != nil {
		service = sgslog.NewLoggingEmbeddingService(service, logger)
	}
	return embedding.NewClient(service, embedding.WithMaxChars(maxChars)), nil
}

func newProvider(ctx context.Context, cli *CLI) (sitegraph.EmbeddingService, int, error) {
	switch cli.Embedder {
	case "openai":
		client, err := openai.NewClient(cli.OpenAIAPIKey, cli.OpenAIBaseURL)
		if err != nil {
			return nil, 0, err
		}
		var opts []openai.Option
		if cli.EmbedModel != "" {
			opts = append(opts, openai.WithModel(cli.EmbedModel))
		}
		if cli.EmbedDims > 0 {
			opts = append(opts, openai.WithDimensions(cli.EmbedDims))
		}
		return openai.NewEmbeddingService(client, opts...), openai.DefaultMaxChars, nil

	default:
		client, err := gemini.NewClient(ctx, cli.GeminiAPIKey)
		if err != nil {
			return nil, 0, err
		}
		var opts []gemini.Option
		if cli.EmbedModel != "" {
			opts = append(opts, gemini.WithModel(cli.EmbedModel))
		}
		if cli.EmbedDims > 0 {
			opts = append(opts, gemini.WithDimensions(int32(cli.EmbedDims)))
		}
		return gemini.NewEmbeddingService(client, opts...), gemini.DefaultMaxChars, nil
	}
}

func apiKeyEnv(provider string) string {
	if provider == "openai" {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// newCrawler wires the crawl pipeline for the crawl command's flags.
func (m *Main) newCrawler(ctx context.Context, cli *CLI, embedder sitegraph.Embedder, deps *Dependencies, logger *slog.Logger) (*crawl.Crawler, error) {
	c := cli.Crawl

	var extractor sitegraph.Extractor = goquery.NewExtractor()
	if c.MainContent {
		extractor = trafilatura.NewExtractor(extractor)
	}

	fetcher, err := m.newFetcher(ctx, c, extractor, deps.Stderr)
	if err != nil {
		return nil, err
	}
	if deps.Metrics != nil {
		fetcher = prometheus.NewFetcher(fetcher, deps.Metrics)
	}
	if logger != nil {
		fetcher = sgslog.NewLoggingFetcher(fetcher, logger)
	}

	crawler := &crawl.Crawler{
		Fetcher:             fetcher,
		Extractor:           extractor,
		Embedder:            embedder,
		Store:               deps.Store,
		RateLimiter:         crawl.NewDomainLimiter(c.RPS, crawl.WithJitter(0, c.Jitter)),
		Cache:               embedding.NewCache(),
		Workers:             c.Workers,
		SimilarityThreshold: c.Similar,
	}

	if c.Sitemap {
		var sitemaps sitegraph.SitemapService = sghttp.NewSitemapService(nil)
		if logger != nil {
			sitemaps = sgslog.NewLoggingSitemapService(sitemaps, logger)
		}
		crawler.Sitemaps = sitemaps
	}
	if logger != nil {
		crawler.RetryLogger = func(format string, args ...any) {
			logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
		}
	}
	return crawler, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sitegraph.db"
	}
	dir := filepath.Join(home, ".sitegraph")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "sitegraph.db")
}
