package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRetrievalCompleted(t *testing.T) {
	at := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	ev := NewRetrievalCompleted(RetrievalSummary{
		ThreadID:    "t-1",
		Intent:      "document_search",
		ResolvedBy:  "locale",
		Results:     4,
		Citations:   3,
		SearchCount: 4,
		Elapsed:     1500 * time.Millisecond,
	}, at)

	assert.Equal(t, TypeRetrievalCompleted, ev.EventType())
	assert.Equal(t, at, ev.Timestamp())
	assert.Equal(t, int64(1500), ev.Payload()["elapsed_ms"])
	assert.Equal(t, []string{}, ev.Payload()["searched_collections"])
	assert.Equal(t, "2024-05-02T10:00:00Z", ev.Payload()["occurred_at"])
}

func TestNewThreadCompacted(t *testing.T) {
	ev := NewThreadCompacted("t-1", 30, 50, 2, time.Now())
	assert.Equal(t, TypeThreadCompacted, ev.EventType())
	assert.Equal(t, 30, ev.Payload()["folded"])
	assert.Equal(t, 2, ev.Payload()["version"])
}
