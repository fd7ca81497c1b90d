// Package neo4j implements sitegraph.GraphStore on a Neo4j database.
//
// Nodes carry the labels Page, Element, and ExternalLink keyed by url, id,
// and url respectively. Each RelationType is written by one fixed,
// parameterized Cypher statement.
package neo4j

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/fwojciec/sitegraph"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Compile-time interface verification.
var _ sitegraph.GraphStore = (*GraphStore)(nil)

// schema is applied by Open. Every statement is idempotent.
var schema = []string{
	`CREATE CONSTRAINT page_url_unique IF NOT EXISTS FOR (p:Page) REQUIRE p.url IS UNIQUE`,
	`CREATE CONSTRAINT external_url_unique IF NOT EXISTS FOR (x:ExternalLink) REQUIRE x.url IS UNIQUE`,
	`CREATE CONSTRAINT element_id_unique IF NOT EXISTS FOR (e:Element) REQUIRE e.id IS UNIQUE`,
	`CREATE INDEX page_domain IF NOT EXISTS FOR (p:Page) ON (p.domain)`,
	`CREATE INDEX element_type IF NOT EXISTS FOR (e:Element) ON (e.type)`,
}

// nodeMatch binds n to the node whose key is $id, whatever its label.
const nodeMatch = `MATCH (n) WHERE (n:Page AND n.url = $id)
	OR (n:Element AND n.id = $id)
	OR (n:ExternalLink AND n.url = $id)`

// relationStatements holds one statement per relationship type. Each
// returns a row only when the source exists.
var relationStatements = map[sitegraph.RelationType]string{
	sitegraph.LinksTo: `
		MATCH (a:Page {url: $from})
		MERGE (b:Page {url: $to})
			ON CREATE SET b.domain = $domain, b.path = $path, b.first_seen = $now
		MERGE (a)-[:LINKS_TO]->(b)
		RETURN a.url`,
	sitegraph.SimilarTo: `
		MATCH (a:Page {url: $from})
		MERGE (b:Page {url: $to})
			ON CREATE SET b.domain = $domain, b.path = $path, b.first_seen = $now
		MERGE (a)-[:SIMILAR_TO]->(b)
		RETURN a.url`,
	sitegraph.NavigatesTo: `
		MATCH (a:Element {id: $from})
		MERGE (b:Page {url: $to})
			ON CREATE SET b.domain = $domain, b.path = $path, b.first_seen = $now
		MERGE (a)-[:NAVIGATES_TO]->(b)
		RETURN a.id`,
	sitegraph.LinksToExternal: `
		MATCH (a:Page {url: $from})
		MERGE (x:ExternalLink {url: $to})
			ON CREATE SET x.domain = $domain, x.first_seen = $now, x.reference_count = 0
		WITH a, x, EXISTS { (a)-[:LINKS_TO_EXTERNAL]->(x) } AS linked
		MERGE (a)-[:LINKS_TO_EXTERNAL]->(x)
		SET x.reference_count = x.reference_count + CASE WHEN linked THEN 0 ELSE 1 END
		RETURN a.url`,
	sitegraph.HasElement: `
		MATCH (a:Page {url: $from})
		MATCH (b:Element {id: $to})
		MERGE (a)-[:HAS_ELEMENT]->(b)
		RETURN a.url`,
}

// GraphStore implements sitegraph.GraphStore using Neo4j.
type GraphStore struct {
	driver   neo4j.DriverWithContext
	database string
	now      func() time.Time
}

// Option configures a GraphStore.
type Option func(*GraphStore)

// WithDatabase selects the Neo4j database. The server default is used
// when unset.
func WithDatabase(name string) Option {
	return func(s *GraphStore) {
		s.database = name
	}
}

// Open connects to Neo4j, verifies connectivity, and applies the schema.
// Close must be called when the GraphStore is no longer needed.
func Open(ctx context.Context, uri, user, password string, opts ...Option) (*GraphStore, error) {
	if uri == "" {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "neo4j URI required")
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "neo4j driver: %v", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, sitegraph.Errorf(sitegraph.EUNAVAILABLE, "connect to neo4j at %s: %v", uri, err)
	}

	s := &GraphStore{driver: driver, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	for _, stmt := range schema {
		if _, err := s.write(ctx, stmt, nil); err != nil {
			_ = driver.Close(ctx)
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return s, nil
}

// Close closes the driver.
func (s *GraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *GraphStore) write(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithWritersRouting())
}

func (s *GraphStore) read(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting())
}

// UpsertPage merges the page on its URL. FirstSeen is set only on create.
// A stored vector survives an update without a vector only while the
// content hash is unchanged.
func (s *GraphStore) UpsertPage(ctx context.Context, page *sitegraph.Page) (string, error) {
	if err := page.Validate(); err != nil {
		return "", err
	}
	if page.FirstSeen.IsZero() {
		page.FirstSeen = s.now().UTC()
	}
	if page.Domain == "" && page.Path == "" {
		page.Domain, page.Path = splitURL(page.URL)
	}

	_, err := s.write(ctx, `
		MERGE (p:Page {url: $url})
			ON CREATE SET p.first_seen = $first_seen
		SET p.embedding = CASE
				WHEN $embedding IS NOT NULL THEN $embedding
				WHEN p.content_hash = $content_hash THEN p.embedding
				ELSE null
			END,
			p.domain = $domain,
			p.path = $path,
			p.title = $title,
			p.description = $description,
			p.keywords = $keywords,
			p.text = $text,
			p.content_hash = $content_hash,
			p.status_code = $status_code,
			p.latency_ns = $latency_ns,
			p.parse_error = $parse_error,
			p.last_crawled = $last_crawled
	`, map[string]any{
		"url":          page.URL,
		"domain":       page.Domain,
		"path":         page.Path,
		"title":        page.Title,
		"description":  page.Description,
		"keywords":     page.Keywords,
		"text":         page.Text,
		"content_hash": page.ContentHash,
		"embedding":    vectorParam(page.Embedding),
		"status_code":  int64(page.StatusCode),
		"latency_ns":   int64(page.Latency),
		"parse_error":  page.ParseError,
		"first_seen":   page.FirstSeen.UTC(),
		"last_crawled": timeParam(page.LastCrawled),
	})
	if err != nil {
		return "", fmt.Errorf("upsert page %s: %w", page.URL, err)
	}
	return page.URL, nil
}

// UpsertElement merges the element on its ID together with its HAS_ELEMENT
// edge. The owning page must exist.
func (s *GraphStore) UpsertElement(ctx context.Context, pageURL string, el *sitegraph.Element) error {
	if err := el.Validate(); err != nil {
		return err
	}
	el.PageURL = pageURL

	res, err := s.write(ctx, `
		MATCH (p:Page {url: $page_url})
		MERGE (e:Element {id: $id})
		SET e.page_url = $page_url,
			e.type = $type,
			e.text = $text,
			e.selector = $selector,
			e.action = $action,
			e.method = $method,
			e.navigates_to = $navigates_to
		MERGE (p)-[:HAS_ELEMENT]->(e)
		RETURN e.id
	`, map[string]any{
		"page_url":     pageURL,
		"id":           el.ID,
		"type":         string(el.Type),
		"text":         el.Text,
		"selector":     el.Selector,
		"action":       el.Action,
		"method":       el.Method,
		"navigates_to": el.NavigatesTo,
	})
	if err != nil {
		return fmt.Errorf("upsert element %s: %w", el.ID, err)
	}
	if len(res.Records) == 0 {
		return sitegraph.Errorf(sitegraph.ENOTFOUND, "page %s not found", pageURL)
	}
	return nil
}

// UpsertRelationship merges the relationship, creating stub targets as
// needed.
func (s *GraphStore) UpsertRelationship(ctx context.Context, fromID, toID string, rel sitegraph.RelationType) error {
	stmt, ok := relationStatements[rel]
	if !ok {
		return sitegraph.Errorf(sitegraph.EINVALID, "invalid relationship type %d", int(rel))
	}
	if fromID == "" || toID == "" {
		return sitegraph.Errorf(sitegraph.EINVALID, "relationship endpoints required")
	}

	domain, path := splitURL(toID)
	res, err := s.write(ctx, stmt, map[string]any{
		"from":   fromID,
		"to":     toID,
		"domain": domain,
		"path":   path,
		"now":    s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("upsert %s %s -> %s: %w", rel, fromID, toID, err)
	}
	if len(res.Records) == 0 {
		if rel == sitegraph.HasElement {
			return sitegraph.Errorf(sitegraph.ENOTFOUND, "page %s or element %s not found", fromID, toID)
		}
		return sitegraph.Errorf(sitegraph.ENOTFOUND, "%s source %s not found", rel, fromID)
	}
	return nil
}

// FindNode returns the page, element, or external link with the given ID.
func (s *GraphStore) FindNode(ctx context.Context, id string) (*sitegraph.GraphNode, error) {
	res, err := s.read(ctx, nodeMatch+` RETURN n LIMIT 1`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("find node %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, sitegraph.Errorf(sitegraph.ENOTFOUND, "node %s not found", id)
	}
	raw, _ := res.Records[0].Get("n")
	node, ok := raw.(neo4j.Node)
	if !ok {
		return nil, sitegraph.Errorf(sitegraph.EINTERNAL, "unexpected node value %T", raw)
	}
	return toGraphNode(node)
}

// FindSimilarNodes ranks pages by cosine similarity to vec. Vectors are
// compared in Go so scores match the SQLite backend.
func (s *GraphStore) FindSimilarNodes(ctx context.Context, vec []float32, limit int) ([]*sitegraph.ScoredPage, error) {
	if sitegraph.Magnitude(vec) == 0 {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "query vector has zero magnitude")
	}
	if limit <= 0 {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "limit must be positive, got %d", limit)
	}

	res, err := s.read(ctx, `
		MATCH (p:Page)
		WHERE p.embedding IS NOT NULL AND size(p.embedding) = $dim
		RETURN p
	`, map[string]any{"dim": int64(len(vec))})
	if err != nil {
		return nil, fmt.Errorf("find similar nodes: %w", err)
	}

	scored := make([]*sitegraph.ScoredPage, 0, len(res.Records))
	for _, rec := range res.Records {
		raw, _ := rec.Get("p")
		node, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		page := pageFromProps(node.Props)
		scored = append(scored, &sitegraph.ScoredPage{
			Page:  page,
			Score: sitegraph.CosineSimilarity(vec, page.Embedding),
		})
	}

	slices.SortFunc(scored, func(a, b *sitegraph.ScoredPage) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Page.URL, b.Page.URL)
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// FindShortestPath uses Cypher's shortestPath over relationships of every
// type, ignoring direction.
func (s *GraphStore) FindShortestPath(ctx context.Context, startID, endID string, maxHops int) (*sitegraph.PathResult, error) {
	if maxHops < 0 {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "max hops must not be negative, got %d", maxHops)
	}

	start, err := s.FindNode(ctx, startID)
	if err != nil {
		return nil, err
	}
	if _, err := s.FindNode(ctx, endID); err != nil {
		return nil, err
	}

	result := &sitegraph.PathResult{StartID: startID, EndID: endID}
	if startID == endID {
		result.Found = true
		result.Nodes = []*sitegraph.GraphNode{start}
		return result, nil
	}
	if maxHops == 0 {
		return result, nil
	}

	// Variable-length bounds cannot be parameters; maxHops is an int.
	query := fmt.Sprintf(`
		MATCH (s) WHERE (s:Page AND s.url = $start) OR (s:Element AND s.id = $start) OR (s:ExternalLink AND s.url = $start)
		MATCH (e) WHERE (e:Page AND e.url = $end) OR (e:Element AND e.id = $end) OR (e:ExternalLink AND e.url = $end)
		MATCH p = shortestPath((s)-[*..%d]-(e))
		RETURN p
	`, maxHops)
	res, err := s.read(ctx, query, map[string]any{"start": startID, "end": endID})
	if err != nil {
		return nil, fmt.Errorf("find shortest path %s -> %s: %w", startID, endID, err)
	}
	if len(res.Records) == 0 {
		return result, nil
	}

	raw, _ := res.Records[0].Get("p")
	path, ok := raw.(neo4j.Path)
	if !ok {
		return nil, sitegraph.Errorf(sitegraph.EINTERNAL, "unexpected path value %T", raw)
	}
	return fillPath(result, path)
}

// fillPath converts a driver path into result. Relationship endpoints are
// element IDs internal to Neo4j and are mapped back to node keys.
func fillPath(result *sitegraph.PathResult, path neo4j.Path) (*sitegraph.PathResult, error) {
	keys := make(map[string]string, len(path.Nodes))
	for _, n := range path.Nodes {
		gn, err := toGraphNode(n)
		if err != nil {
			return nil, err
		}
		keys[n.ElementId] = gn.ID
		result.Nodes = append(result.Nodes, gn)
	}
	for _, r := range path.Relationships {
		typ, err := sitegraph.ParseRelationType(r.Type)
		if err != nil {
			return nil, err
		}
		result.Edges = append(result.Edges, sitegraph.PathEdge{
			From: keys[r.StartElementId],
			To:   keys[r.EndElementId],
			Type: typ,
		})
	}
	result.Found = true
	return result, nil
}

// Stats returns node and relationship counts.
func (s *GraphStore) Stats(ctx context.Context) (*sitegraph.GraphStats, error) {
	res, err := s.read(ctx, `
		CALL { MATCH (p:Page) RETURN count(p) AS pages }
		CALL { MATCH (p:Page) WHERE p.last_crawled IS NOT NULL RETURN count(p) AS crawled }
		CALL { MATCH (e:Element) RETURN count(e) AS elements }
		CALL { MATCH (x:ExternalLink) RETURN count(x) AS external }
		RETURN pages, crawled, elements, external
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	stats := &sitegraph.GraphStats{Relationships: make(map[sitegraph.RelationType]int)}
	if len(res.Records) > 0 {
		rec := res.Records[0]
		stats.Pages = intValue(rec, "pages")
		stats.CrawledPages = intValue(rec, "crawled")
		stats.Elements = intValue(rec, "elements")
		stats.ExternalLinks = intValue(rec, "external")
	}

	res, err = s.read(ctx, `MATCH ()-[r]->() RETURN type(r) AS type, count(r) AS n`, nil)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	for _, rec := range res.Records {
		name, _ := rec.Get("type")
		typ, err := sitegraph.ParseRelationType(fmt.Sprint(name))
		if err != nil {
			continue
		}
		stats.Relationships[typ] = intValue(rec, "n")
	}
	return stats, nil
}

// Reset deletes every Page, Element, and ExternalLink with their
// relationships.
func (s *GraphStore) Reset(ctx context.Context) error {
	_, err := s.write(ctx, `
		MATCH (n) WHERE n:Page OR n:Element OR n:ExternalLink
		DETACH DELETE n
	`, nil)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
