package contract

import (
	"context"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AgentConfigRepository interface {
	Create(ctx context.Context, agent *entity.AgentConfig) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AgentConfig, error)
}

type UserSettingsRepository interface {
	FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.UserSettings, error)
	Upsert(ctx context.Context, settings *entity.UserSettings) error
}
