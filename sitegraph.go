// Package sitegraph crawls a website into a property graph of pages,
// interactive elements, and external references, and answers two questions
// against that graph: which node best matches a free-text request, and what
// is the shortest sequence of steps from a starting node to that match.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, neo4j/, goquery/, rod/).
package sitegraph
