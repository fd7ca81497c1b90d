package neo4j

import (
	"net/url"
	"slices"
	"time"

	"github.com/fwojciec/sitegraph"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// toGraphNode maps a driver node onto the graph node for its label.
func toGraphNode(n neo4j.Node) (*sitegraph.GraphNode, error) {
	switch {
	case slices.Contains(n.Labels, "Page"):
		page := pageFromProps(n.Props)
		return &sitegraph.GraphNode{Kind: sitegraph.NodePage, ID: page.URL, Page: page}, nil
	case slices.Contains(n.Labels, "Element"):
		el := &sitegraph.Element{
			ID:          stringProp(n.Props, "id"),
			PageURL:     stringProp(n.Props, "page_url"),
			Type:        sitegraph.ElementType(stringProp(n.Props, "type")),
			Text:        stringProp(n.Props, "text"),
			Selector:    stringProp(n.Props, "selector"),
			Action:      stringProp(n.Props, "action"),
			Method:      stringProp(n.Props, "method"),
			NavigatesTo: stringProp(n.Props, "navigates_to"),
		}
		return &sitegraph.GraphNode{Kind: sitegraph.NodeElement, ID: el.ID, Element: el}, nil
	case slices.Contains(n.Labels, "ExternalLink"):
		ext := &sitegraph.ExternalLink{
			URL:            stringProp(n.Props, "url"),
			Domain:         stringProp(n.Props, "domain"),
			FirstSeen:      timeProp(n.Props, "first_seen"),
			ReferenceCount: int(intProp(n.Props, "reference_count")),
		}
		return &sitegraph.GraphNode{Kind: sitegraph.NodeExternal, ID: ext.URL, External: ext}, nil
	}
	return nil, sitegraph.Errorf(sitegraph.EINTERNAL, "node %s has unknown labels %v", n.ElementId, n.Labels)
}

func pageFromProps(props map[string]any) *sitegraph.Page {
	return &sitegraph.Page{
		URL:         stringProp(props, "url"),
		Domain:      stringProp(props, "domain"),
		Path:        stringProp(props, "path"),
		Title:       stringProp(props, "title"),
		Description: stringProp(props, "description"),
		Keywords:    stringProp(props, "keywords"),
		Text:        stringProp(props, "text"),
		ContentHash: stringProp(props, "content_hash"),
		Embedding:   vectorProp(props, "embedding"),
		StatusCode:  int(intProp(props, "status_code")),
		Latency:     time.Duration(intProp(props, "latency_ns")),
		ParseError:  stringProp(props, "parse_error"),
		FirstSeen:   timeProp(props, "first_seen"),
		LastCrawled: timeProp(props, "last_crawled"),
	}
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func intProp(props map[string]any, key string) int64 {
	n, _ := props[key].(int64)
	return n
}

func timeProp(props map[string]any, key string) time.Time {
	t, _ := props[key].(time.Time)
	return t
}

// vectorProp reads a list property. The driver returns lists as []any of
// float64.
func vectorProp(props map[string]any, key string) []float32 {
	list, ok := props[key].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	v := make([]float32, len(list))
	for i, x := range list {
		f, _ := x.(float64)
		v[i] = float32(f)
	}
	return v
}

// vectorParam converts v to a list parameter, or nil for no vector.
func vectorParam(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// timeParam maps the zero time to null.
func timeParam(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func intValue(rec *neo4j.Record, key string) int {
	v, _ := rec.Get(key)
	n, _ := v.(int64)
	return int(n)
}

func splitURL(raw string) (domain, path string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	return u.Host, u.Path
}
