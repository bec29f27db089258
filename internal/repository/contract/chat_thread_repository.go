package contract

import (
	"context"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatThreadRepository interface {
	Create(ctx context.Context, thread *entity.ChatThread) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatThread, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatThread, error)
	UpdateLastIntent(ctx context.Context, id uuid.UUID, intent string) error
	// UpdateCompaction writes the summary columns and bumps the version only
	// while the row is still at expectedVersion. It reports whether a row changed.
	UpdateCompaction(ctx context.Context, thread *entity.ChatThread, expectedVersion int) (bool, error)
}
