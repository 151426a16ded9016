package analytics

import "time"

// Event types.
const (
	TypePageView    = "page_view"
	TypeEvent       = "event"
	TypeEcommerce   = "ecommerce"
	TypePerformance = "performance"
	TypeError       = "error"
)

// Event is one tracked interaction. Which fields are set depends on Type.
type Event struct {
	Type      string         `json:"type"`
	Page      string         `json:"page,omitempty"`
	Name      string         `json:"name,omitempty"`
	Category  string         `json:"category,omitempty"`
	Action    string         `json:"action,omitempty"`
	Label     string         `json:"label,omitempty"`
	Value     *float64       `json:"value,omitempty"`
	Metric    string         `json:"metric,omitempty"`
	Unit      string         `json:"unit,omitempty"`
	Product   map[string]any `json:"product,omitempty"`
	Error     *ErrorInfo     `json:"error,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	URL       string         `json:"url,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"sessionId"`

	seq uint64
}

// ErrorInfo describes a tracked error.
type ErrorInfo struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

// Batch is what a flush delivers: the session's buffered events and how long
// the session has been running, in milliseconds.
type Batch struct {
	SessionID       string  `json:"sessionId"`
	Events          []Event `json:"events"`
	SessionDuration int64   `json:"sessionDuration"`
}
