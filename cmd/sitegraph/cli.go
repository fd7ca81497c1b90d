package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/crawl"
	"github.com/fwojciec/sitegraph/navigate"
	"github.com/fwojciec/sitegraph/prometheus"
)

// Resetter empties a graph store.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Store     sitegraph.GraphStore
	Resetter  Resetter
	Crawler   *crawl.Crawler
	Matcher   *navigate.Matcher
	Navigator sitegraph.Navigator
	Metrics   *prometheus.Metrics
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB            string `name:"db" env:"SITEGRAPH_DB" help:"SQLite database path"`
	Neo4jURI      string `name:"neo4j-uri" env:"NEO4J_URI" help:"Use Neo4j at this URI instead of SQLite"`
	Neo4jUser     string `name:"neo4j-user" env:"NEO4J_USER" default:"neo4j" help:"Neo4j user"`
	Neo4jPassword string `name:"neo4j-password" env:"NEO4J_PASSWORD" help:"Neo4j password"`
	Neo4jDatabase string `name:"neo4j-database" env:"NEO4J_DATABASE" help:"Neo4j database name"`

	Embedder      string `enum:"gemini,openai,none" default:"gemini" env:"SITEGRAPH_EMBEDDER" help:"Embedding provider (gemini, openai, none)"`
	EmbedModel    string `name:"embed-model" env:"SITEGRAPH_EMBED_MODEL" help:"Embedding model override"`
	EmbedDims     int    `name:"embed-dimensions" env:"SITEGRAPH_EMBED_DIMENSIONS" help:"Truncate vectors to this many dimensions"`
	GeminiAPIKey  string `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key"`
	OpenAIAPIKey  string `name:"openai-api-key" env:"OPENAI_API_KEY" help:"OpenAI API key"`
	OpenAIBaseURL string `name:"openai-base-url" env:"OPENAI_BASE_URL" help:"OpenAI-compatible API base URL"`
	Verbose       bool   `short:"v" help:"Log fetches, embeddings, and store operations to stderr"`

	Crawl    CrawlCmd    `cmd:"" help:"Crawl a site and build its graph"`
	Navigate NavigateCmd `cmd:"" help:"Find the best page for a request and the steps to reach it"`
	Similar  SimilarCmd  `cmd:"" help:"List pages semantically similar to a query"`
	Stats    StatsCmd    `cmd:"" help:"Show graph node and relationship counts"`
	Reset    ResetCmd    `cmd:"" help:"Delete every node and relationship"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URL         string        `arg:"" help:"Origin URL to crawl"`
	MaxPages    int           `short:"n" default:"1000" help:"Maximum pages to crawl"`
	MaxDepth    int           `short:"d" default:"10" help:"Maximum link depth from the origin"`
	Blacklist   []string      `short:"b" help:"Skip URLs whose path contains this text or matches this regex (repeatable)"`
	Workers     int           `short:"w" default:"1" help:"Concurrent page workers"`
	RPS         float64       `name:"rps" default:"1" help:"Requests per second per host"`
	Jitter      time.Duration `default:"1s" help:"Maximum random delay added before each request"`
	Timeout     time.Duration `short:"t" default:"30s" help:"Fetch timeout per page"`
	Render      string        `enum:"never,always,auto" default:"never" help:"Render pages in Chrome (never, always, auto)"`
	Sitemap     bool          `help:"Seed the frontier from sitemap.xml"`
	MainContent bool          `name:"main-content" help:"Embed only the main content of each page"`
	Similar     float64       `default:"0" help:"Link pages whose similarity reaches this threshold (0 disables)"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address during the crawl"`
}

// NavigateCmd is the "navigate" subcommand.
type NavigateCmd struct {
	Query    string   `arg:"" help:"What the user wants to do"`
	Start    string   `short:"s" help:"Start node ID (defaults to --home)"`
	Home     string   `env:"SITEGRAPH_HOME" default:"homepage" help:"Home node ID used when no start is given"`
	Keywords []string `short:"k" name:"keyword" help:"Extra keyword for matching (repeatable)"`
	Limit    int      `short:"l" default:"3" help:"Number of candidates to rank"`
	MaxHops  int      `name:"max-hops" default:"10" help:"Maximum path length"`
}

// SimilarCmd is the "similar" subcommand.
type SimilarCmd struct {
	Query string `arg:"" help:"Text to match against page content"`
	Limit int    `short:"l" default:"5" help:"Number of results"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct{}

// ResetCmd is the "reset" subcommand.
type ResetCmd struct {
	Force bool `help:"Confirm deletion"`
}
