package sitegraph

import "strings"

// RelationType enumerates the relationship types stored in the graph.
type RelationType int

// Relationship types.
const (
	// LinksTo is an internal hyperlink, Page to Page.
	LinksTo RelationType = iota + 1
	// LinksToExternal is a reference from a Page to an ExternalLink.
	LinksToExternal
	// HasElement connects a Page to an Element it owns.
	HasElement
	// NavigatesTo connects an Element to the Page it leads to.
	NavigatesTo
	// SimilarTo is an optional precomputed similarity edge, Page to Page.
	SimilarTo
)

var relationNames = map[RelationType]string{
	LinksTo:         "LINKS_TO",
	LinksToExternal: "LINKS_TO_EXTERNAL",
	HasElement:      "HAS_ELEMENT",
	NavigatesTo:     "NAVIGATES_TO",
	SimilarTo:       "SIMILAR_TO",
}

// RelationTypes returns every relationship type in declaration order.
func RelationTypes() []RelationType {
	return []RelationType{LinksTo, LinksToExternal, HasElement, NavigatesTo, SimilarTo}
}

// String returns the graph label of the relationship type.
func (r RelationType) String() string {
	if name, ok := relationNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether r is a known relationship type.
func (r RelationType) Valid() bool {
	_, ok := relationNames[r]
	return ok
}

// ParseRelationType returns the RelationType for a graph label.
func ParseRelationType(s string) (RelationType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for r, name := range relationNames {
		if name == s {
			return r, nil
		}
	}
	return 0, Errorf(EINVALID, "unknown relationship type %q", s)
}
