package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fwojciec/sitegraph"
)

// Compile-time interface verification.
var _ sitegraph.GraphStore = (*GraphStore)(nil)

// GraphStore implements sitegraph.GraphStore using SQLite.
//
// Similarity is ranked in Go over all stored vectors and shortest paths
// are found with a breadth-first search issuing one neighbor query per
// visited node. Both are adequate for single-site graphs.
type GraphStore struct {
	db  *DB
	now func() time.Time
}

// NewGraphStore creates a new GraphStore.
func NewGraphStore(db *DB) *GraphStore {
	return &GraphStore{db: db, now: time.Now}
}

// querier is satisfied by *sql.Tx and *DB.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const pageColumns = `url, domain, path, title, description, keywords, text, content_hash,
	embedding, status_code, latency_ns, parse_error, first_seen, last_crawled`

// UpsertPage creates the page or updates its mutable fields. FirstSeen is
// kept from the first insert. A stored vector survives an update without a
// vector only while the content hash is unchanged.
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (`+pageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			domain = excluded.domain,
			path = excluded.path,
			title = excluded.title,
			description = excluded.description,
			keywords = excluded.keywords,
			text = excluded.text,
			embedding = CASE
				WHEN excluded.embedding IS NOT NULL THEN excluded.embedding
				WHEN pages.content_hash = excluded.content_hash THEN pages.embedding
				ELSE NULL
			END,
			content_hash = excluded.content_hash,
			status_code = excluded.status_code,
			latency_ns = excluded.latency_ns,
			parse_error = excluded.parse_error,
			last_crawled = excluded.last_crawled
	`, page.URL, page.Domain, page.Path, page.Title, page.Description, page.Keywords,
		page.Text, page.ContentHash, vectorArg(page.Embedding), page.StatusCode,
		int64(page.Latency), page.ParseError, formatTime(page.FirstSeen), formatTime(page.LastCrawled))
	if err != nil {
		return "", fmt.Errorf("upsert page %s: %w", page.URL, err)
	}
	return page.URL, nil
}

// UpsertElement creates or updates the element and its HAS_ELEMENT edge.
// The owning page must exist.
func (s *GraphStore) UpsertElement(ctx context.Context, pageURL string, el *sitegraph.Element) error {
	if err := el.Validate(); err != nil {
		return err
	}
	el.PageURL = pageURL

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if ok, err := exists(ctx, tx, `SELECT 1 FROM pages WHERE url = ?`, pageURL); err != nil {
			return err
		} else if !ok {
			return sitegraph.Errorf(sitegraph.ENOTFOUND, "page %s not found", pageURL)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO elements (id, page_url, type, text, selector, action, method, navigates_to)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				page_url = excluded.page_url,
				type = excluded.type,
				text = excluded.text,
				selector = excluded.selector,
				action = excluded.action,
				method = excluded.method,
				navigates_to = excluded.navigates_to
		`, el.ID, pageURL, string(el.Type), el.Text, el.Selector, el.Action, el.Method, el.NavigatesTo); err != nil {
			return fmt.Errorf("upsert element %s: %w", el.ID, err)
		}

		_, err := s.insertEdge(ctx, tx, pageURL, el.ID, sitegraph.HasElement)
		return err
	})
}

// UpsertRelationship creates the relationship if absent, creating stub
// targets as needed.
func (s *GraphStore) UpsertRelationship(ctx context.Context, fromID, toID string, rel sitegraph.RelationType) error {
	if !rel.Valid() {
		return sitegraph.Errorf(sitegraph.EINVALID, "invalid relationship type %d", int(rel))
	}
	if fromID == "" || toID == "" {
		return sitegraph.Errorf(sitegraph.EINVALID, "relationship endpoints required")
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		sourceTable := "pages"
		sourceKey := "url"
		if rel == sitegraph.NavigatesTo {
			sourceTable, sourceKey = "elements", "id"
		}
		if ok, err := exists(ctx, tx, `SELECT 1 FROM `+sourceTable+` WHERE `+sourceKey+` = ?`, fromID); err != nil {
			return err
		} else if !ok {
			return sitegraph.Errorf(sitegraph.ENOTFOUND, "%s source %s not found", rel, fromID)
		}

		now := formatTime(s.now())
		switch rel {
		case sitegraph.LinksTo, sitegraph.NavigatesTo, sitegraph.SimilarTo:
			domain, path := splitURL(toID)
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO pages (url, domain, path, first_seen) VALUES (?, ?, ?, ?)
				ON CONFLICT(url) DO NOTHING
			`, toID, domain, path, now); err != nil {
				return fmt.Errorf("create stub page %s: %w", toID, err)
			}
		case sitegraph.LinksToExternal:
			domain, _ := splitURL(toID)
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO external_links (url, domain, first_seen) VALUES (?, ?, ?)
				ON CONFLICT(url) DO NOTHING
			`, toID, domain, now); err != nil {
				return fmt.Errorf("create external link %s: %w", toID, err)
			}
		case sitegraph.HasElement:
			if ok, err := exists(ctx, tx, `SELECT 1 FROM elements WHERE id = ?`, toID); err != nil {
				return err
			} else if !ok {
				return sitegraph.Errorf(sitegraph.ENOTFOUND, "element %s not found", toID)
			}
		}

		created, err := s.insertEdge(ctx, tx, fromID, toID, rel)
		if err != nil {
			return err
		}
		if created && rel == sitegraph.LinksToExternal {
			if _, err := tx.ExecContext(ctx, `
				UPDATE external_links SET reference_count = reference_count + 1 WHERE url = ?
			`, toID); err != nil {
				return fmt.Errorf("count reference to %s: %w", toID, err)
			}
		}
		return nil
	})
}

// insertEdge inserts the relationship and reports whether it is new.
func (s *GraphStore) insertEdge(ctx context.Context, tx *sql.Tx, fromID, toID string, rel sitegraph.RelationType) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO relationships (source_id, target_id, type, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, type) DO NOTHING
	`, fromID, toID, int(rel), formatTime(s.now()))
	if err != nil {
		return false, fmt.Errorf("insert %s %s -> %s: %w", rel, fromID, toID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FindNode returns the page, element, or external link with the given ID.
func (s *GraphStore) FindNode(ctx context.Context, id string) (*sitegraph.GraphNode, error) {
	return findNode(ctx, s.db, id)
}

func findNode(ctx context.Context, q querier, id string) (*sitegraph.GraphNode, error) {
	page, err := scanPage(q.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE url = ?`, id))
	if err == nil {
		return &sitegraph.GraphNode{Kind: sitegraph.NodePage, ID: id, Page: page}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var el sitegraph.Element
	var typ string
	err = q.QueryRowContext(ctx, `
		SELECT id, page_url, type, text, selector, action, method, navigates_to
		FROM elements WHERE id = ?
	`, id).Scan(&el.ID, &el.PageURL, &typ, &el.Text, &el.Selector, &el.Action, &el.Method, &el.NavigatesTo)
	if err == nil {
		el.Type = sitegraph.ElementType(typ)
		return &sitegraph.GraphNode{Kind: sitegraph.NodeElement, ID: id, Element: &el}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var ext sitegraph.ExternalLink
	var firstSeen string
	err = q.QueryRowContext(ctx, `
		SELECT url, domain, first_seen, reference_count FROM external_links WHERE url = ?
	`, id).Scan(&ext.URL, &ext.Domain, &firstSeen, &ext.ReferenceCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sitegraph.Errorf(sitegraph.ENOTFOUND, "node %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if ext.FirstSeen, err = parseTime(firstSeen, "first_seen"); err != nil {
		return nil, err
	}
	return &sitegraph.GraphNode{Kind: sitegraph.NodeExternal, ID: id, External: &ext}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*sitegraph.Page, error) {
	var p sitegraph.Page
	var vec []byte
	var latency int64
	var firstSeen, lastCrawled string
	if err := row.Scan(&p.URL, &p.Domain, &p.Path, &p.Title, &p.Description, &p.Keywords,
		&p.Text, &p.ContentHash, &vec, &p.StatusCode, &latency, &p.ParseError,
		&firstSeen, &lastCrawled); err != nil {
		return nil, err
	}

	var err error
	p.Latency = time.Duration(latency)
	if p.Embedding, err = decodeVector(vec); err != nil {
		return nil, fmt.Errorf("page %s: %w", p.URL, err)
	}
	if p.FirstSeen, err = parseTime(firstSeen, "first_seen"); err != nil {
		return nil, err
	}
	if p.LastCrawled, err = parseTime(lastCrawled, "last_crawled"); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindSimilarNodes ranks pages by cosine similarity to vec. Pages whose
// vector has a different dimension are skipped. Ties are broken by URL.
func (s *GraphStore) FindSimilarNodes(ctx context.Context, vec []float32, limit int) ([]*sitegraph.ScoredPage, error) {
	if sitegraph.Magnitude(vec) == 0 {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "query vector has zero magnitude")
	}
	if limit <= 0 {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "limit must be positive, got %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []*sitegraph.ScoredPage
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		if len(page.Embedding) != len(vec) {
			continue
		}
		scored = append(scored, &sitegraph.ScoredPage{
			Page:  page,
			Score: sitegraph.CosineSimilarity(vec, page.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
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

// FindShortestPath runs a breadth-first search over all relationships,
// ignoring their direction.
func (s *GraphStore) FindShortestPath(ctx context.Context, startID, endID string, maxHops int) (*sitegraph.PathResult, error) {
	if maxHops < 0 {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "max hops must not be negative, got %d", maxHops)
	}

	start, err := s.FindNode(ctx, startID)
	if err != nil {
		return nil, err
	}
	end, err := s.FindNode(ctx, endID)
	if err != nil {
		return nil, err
	}

	result := &sitegraph.PathResult{StartID: startID, EndID: endID}
	if startID == endID {
		result.Found = true
		result.Nodes = []*sitegraph.GraphNode{start}
		return result, nil
	}

	// parent maps each reached node to the edge it was reached through.
	type step struct {
		prev string
		edge sitegraph.PathEdge
	}
	parent := map[string]step{startID: {}}
	level := []string{startID}

search:
	for hop := 0; hop < maxHops && len(level) > 0; hop++ {
		var next []string
		for _, id := range level {
			edges, err := s.neighbors(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				other := e.To
				if other == id {
					other = e.From
				}
				if _, seen := parent[other]; seen {
					continue
				}
				parent[other] = step{prev: id, edge: e}
				if other == endID {
					break search
				}
				next = append(next, other)
			}
		}
		level = next
	}

	if _, ok := parent[endID]; !ok {
		return result, nil
	}

	var ids []string
	var edges []sitegraph.PathEdge
	for id := endID; id != startID; id = parent[id].prev {
		ids = append(ids, id)
		edges = append(edges, parent[id].edge)
	}
	ids = append(ids, startID)
	slices.Reverse(ids)
	slices.Reverse(edges)

	result.Found = true
	result.Edges = edges
	result.Nodes = make([]*sitegraph.GraphNode, len(ids))
	result.Nodes[0] = start
	result.Nodes[len(ids)-1] = end
	for i := 1; i < len(ids)-1; i++ {
		if result.Nodes[i], err = s.FindNode(ctx, ids[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// neighbors returns every relationship touching id, in a stable order.
func (s *GraphStore) neighbors(ctx context.Context, id string) ([]sitegraph.PathEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, target_id, type FROM relationships
		WHERE source_id = ? OR target_id = ?
		ORDER BY type, source_id, target_id
	`, id, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []sitegraph.PathEdge
	for rows.Next() {
		var e sitegraph.PathEdge
		var typ int
		if err := rows.Scan(&e.From, &e.To, &typ); err != nil {
			return nil, err
		}
		e.Type = sitegraph.RelationType(typ)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Stats returns node and relationship counts.
func (s *GraphStore) Stats(ctx context.Context) (*sitegraph.GraphStats, error) {
	stats := &sitegraph.GraphStats{Relationships: make(map[sitegraph.RelationType]int)}

	if err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM pages),
			(SELECT COUNT(*) FROM pages WHERE last_crawled != ''),
			(SELECT COUNT(*) FROM elements),
			(SELECT COUNT(*) FROM external_links)
	`).Scan(&stats.Pages, &stats.CrawledPages, &stats.Elements, &stats.ExternalLinks); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM relationships GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ, n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		stats.Relationships[sitegraph.RelationType(typ)] = n
	}
	return stats, rows.Err()
}

// Reset deletes every node and relationship.
func (s *GraphStore) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"relationships", "elements", "external_links", "pages"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("reset %s: %w", table, err)
			}
		}
		return nil
	})
}

// withTx runs fn in a transaction, committing on success.
func (s *GraphStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
