package service

import (
	"context"

	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/pkg/events"
	pktNats "ai-assistant-be/pkg/nats"
)

// EventSubscriber is satisfied by the NATS subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType string, durableName string, handler pktNats.EventHandler) error
}

type IAuditService interface {
	Start(ctx context.Context) error
	Handle(ctx context.Context, event events.Event) error
}

// auditService copies retrieval and compaction events into a dedicated audit log.
type auditService struct {
	subscriber EventSubscriber
	audit      logger.ILogger
}

func NewAuditService(subscriber EventSubscriber, audit logger.ILogger) IAuditService {
	return &auditService{subscriber: subscriber, audit: audit}
}

func (s *auditService) Start(ctx context.Context) error {
	for _, eventType := range []string{events.TypeRetrievalCompleted, events.TypeThreadCompacted} {
		if err := s.subscriber.Subscribe(ctx, eventType, "audit_"+eventType, s.Handle); err != nil {
			return err
		}
	}
	return nil
}

func (s *auditService) Handle(_ context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["event_type"] = event.EventType()

	s.audit.Info("AUDIT", event.EventType(), details)
	return nil
}
