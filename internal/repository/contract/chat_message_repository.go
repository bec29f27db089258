package contract

import (
	"context"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	DeleteByChatThreadId(ctx context.Context, threadId uuid.UUID) error
	// FindThreadHistory returns every message of a thread, oldest first.
	FindThreadHistory(ctx context.Context, threadId uuid.UUID) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
