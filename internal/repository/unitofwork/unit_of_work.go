package unitofwork

import (
	"context"

	"ai-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatThreadRepository() contract.ChatThreadRepository
	ChatMessageRepository() contract.ChatMessageRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	AgentConfigRepository() contract.AgentConfigRepository
	UserSettingsRepository() contract.UserSettingsRepository
}
