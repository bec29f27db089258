package events

import "time"

const (
	TypeRetrievalCompleted = "retrieval_completed"
	TypeThreadCompacted    = "thread_compacted"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the subject suffix, e.g. "retrieval_completed".
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// RetrievalSummary is the audit record of one pipeline run.
type RetrievalSummary struct {
	ThreadID    string
	UserID      string
	Intent      string
	ResolvedBy  string
	Searched    []string
	Results     int
	Citations   int
	SearchCount int
	Elapsed     time.Duration
}

func NewRetrievalCompleted(s RetrievalSummary, at time.Time) BaseEvent {
	searched := s.Searched
	if searched == nil {
		searched = []string{}
	}
	return BaseEvent{
		Type: TypeRetrievalCompleted,
		Data: map[string]interface{}{
			"thread_id":            s.ThreadID,
			"user_id":              s.UserID,
			"intent":               s.Intent,
			"resolved_by":          s.ResolvedBy,
			"searched_collections": searched,
			"results":              s.Results,
			"citations":            s.Citations,
			"search_count":         s.SearchCount,
			"elapsed_ms":           s.Elapsed.Milliseconds(),
			"occurred_at":          at.UTC().Format(time.RFC3339Nano),
		},
		OccurredAt: at,
	}
}

func NewThreadCompacted(threadID string, folded, messages, version int, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeThreadCompacted,
		Data: map[string]interface{}{
			"thread_id":   threadID,
			"folded":      folded,
			"messages":    messages,
			"version":     version,
			"occurred_at": at.UTC().Format(time.RFC3339Nano),
		},
		OccurredAt: at,
	}
}
