package sitegraph

import "context"

// Match is a graph node ranked against a free-text query.
type Match struct {
	NodeID  string  `json:"nodeId"`
	Title   string  `json:"title,omitempty"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

// StepAction tells the user what to do at a step.
type StepAction string

// Step actions.
const (
	ActionStart       StepAction = "start"
	ActionNavigate    StepAction = "navigate"
	ActionClick       StepAction = "click"
	ActionDestination StepAction = "destination"
)

// Step is one entry of a human-readable navigation path.
type Step struct {
	Number      int        `json:"stepNumber"`
	NodeID      string     `json:"nodeId"`
	NodeType    NodeKind   `json:"nodeType"`
	Description string     `json:"description"`
	Action      StepAction `json:"action"`
}

// Route is a resolved path between two nodes. When Found is false, Steps is
// empty and StartID and EndID record what was attempted.
type Route struct {
	Found   bool
	StartID string
	EndID   string
	Steps   []Step
}

// NavigationStatus is the outcome reported to the navigation caller.
type NavigationStatus string

// Navigation statuses.
const (
	StatusSuccess NavigationStatus = "success"
	StatusError   NavigationStatus = "error"
)

// NavigationRequest is a free-text navigation query.
type NavigationRequest struct {
	Query string

	// StartID defaults to the configured home node when empty.
	StartID string

	// Keywords are optional pre-extracted terms appended to the query.
	Keywords []string
}

// Navigation is the answer to a NavigationRequest.
type Navigation struct {
	Status     NavigationStatus `json:"status"`
	Message    string           `json:"message,omitempty"`
	Path       []Step           `json:"path"`
	BestMatch  *Match           `json:"bestMatch,omitempty"`
	Alternates []Match          `json:"alternates"`
}

// Navigator answers navigation requests against the graph.
type Navigator interface {
	// Navigate ranks nodes against the query and resolves a path to the
	// best match. "No match" and "no path" are reported through
	// Navigation.Status; errors are reserved for invalid input and
	// infrastructure failures.
	Navigate(ctx context.Context, req NavigationRequest) (*Navigation, error)
}
