package nats

import (
	"testing"
	"time"

	"ai-assistant-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	ev := events.NewThreadCompacted("t-9", 30, 50, 1, at)

	tests := []struct {
		name     string
		subject  string
		data     string
		wantType string
		wantAt   *time.Time
		wantErr  bool
	}{
		{
			name:     "thread compacted",
			subject:  Subject(ev.EventType()),
			data:     `{"thread_id":"t-9","folded":30,"occurred_at":"2024-06-01T08:30:00Z"}`,
			wantType: events.TypeThreadCompacted,
			wantAt:   &at,
		},
		{
			name:     "missing timestamp",
			subject:  "events.retrieval_completed",
			data:     `{"thread_id":"t-1"}`,
			wantType: events.TypeRetrievalCompleted,
		},
		{name: "not json", subject: "events.x", data: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent(tt.subject, []byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, got.EventType())
			if tt.wantAt != nil {
				assert.True(t, tt.wantAt.Equal(got.Timestamp()))
			} else {
				assert.False(t, got.Timestamp().IsZero())
			}
		})
	}
}
