package service

import (
	"context"
	"testing"
	"time"

	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/pkg/events"
	pktNats "ai-assistant-be/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSubscriber struct {
	durables map[string]string
	handlers map[string]pktNats.EventHandler
}

func (s *recordingSubscriber) Subscribe(ctx context.Context, eventType string, durableName string, handler pktNats.EventHandler) error {
	s.durables[eventType] = durableName
	s.handlers[eventType] = handler
	return nil
}

func TestAuditServiceWritesEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sub := &recordingSubscriber{durables: map[string]string{}, handlers: map[string]pktNats.EventHandler{}}
	svc := NewAuditService(sub, logger.NewFromZap(zap.New(core)))

	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, "audit_retrieval_completed", sub.durables[events.TypeRetrievalCompleted])
	assert.Equal(t, "audit_thread_compacted", sub.durables[events.TypeThreadCompacted])

	evt := events.NewThreadCompacted("t-1", 30, 50, 2, time.Now())
	require.NoError(t, sub.handlers[events.TypeThreadCompacted](context.Background(), evt))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, events.TypeThreadCompacted, entries[0].Message)
	details, ok := entries[0].ContextMap()["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "t-1", details["thread_id"])
	assert.Equal(t, events.TypeThreadCompacted, details["event_type"])
}
