package service

import (
	"context"
	"time"

	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/pkg/events"
	"ai-assistant-be/pkg/rag/compaction"
	"ai-assistant-be/pkg/store"
)

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// CompactionRunner wraps the compaction service and announces finished compactions.
type CompactionRunner struct {
	svc    *compaction.Service
	events EventPublisher
	logger logger.ILogger
}

func NewCompactionRunner(svc *compaction.Service, eventPublisher EventPublisher, log logger.ILogger) *CompactionRunner {
	return &CompactionRunner{svc: svc, events: eventPublisher, logger: log}
}

func (r *CompactionRunner) Compact(ctx context.Context, threadID string) (compaction.Result, error) {
	res, err := r.svc.Compact(ctx, threadID)
	if err != nil || !res.Compacted {
		return res, err
	}

	if r.events != nil {
		evt := events.NewThreadCompacted(threadID, res.Folded, len(res.Messages), res.State.Version, time.Now())
		if err := r.events.Publish(ctx, evt); err != nil {
			r.logger.Warn("COMPACTION", "Failed to publish thread_compacted event", map[string]interface{}{
				"thread_id": threadID,
				"error":     err.Error(),
			})
		}
	}
	return res, nil
}

func (r *CompactionRunner) KeepRecent() int {
	return r.svc.KeepRecent()
}

func (r *CompactionRunner) NeedsCompaction(messageCount int, state store.CompactionState) bool {
	return r.svc.NeedsCompaction(messageCount, state)
}
