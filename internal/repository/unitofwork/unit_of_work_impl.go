package unitofwork

import (
	"context"
	"errors"
	"fmt"

	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/implementation"

	"gorm.io/gorm"
)

var errNoTransaction = errors.New("unit of work has no open transaction")

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // open between Begin and Commit/Rollback
}

func NewUnitOfWork(ctx context.Context, db *gorm.DB) UnitOfWork {
	if ctx != nil {
		db = db.WithContext(ctx)
	}
	return &UnitOfWorkImpl{db: db}
}

func (u *UnitOfWorkImpl) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("begin: transaction already open")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin: %w", tx.Error)
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("commit: %w", errNoTransaction)
	}
	tx := u.tx
	u.tx = nil
	return tx.Commit().Error
}

// Rollback after a successful Commit is a no-op so callers can defer it.
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return nil
	}
	tx := u.tx
	u.tx = nil
	return tx.Rollback().Error
}


func (u *UnitOfWorkImpl) ChatThreadRepository() contract.ChatThreadRepository {
	return implementation.NewChatThreadRepository(u.conn())
}

func (u *UnitOfWorkImpl) ChatMessageRepository() contract.ChatMessageRepository {
	return implementation.NewChatMessageRepository(u.conn())
}

func (u *UnitOfWorkImpl) DocumentChunkRepository() contract.DocumentChunkRepository {
	return implementation.NewDocumentChunkRepository(u.conn())
}

func (u *UnitOfWorkImpl) AgentConfigRepository() contract.AgentConfigRepository {
	return implementation.NewAgentConfigRepository(u.conn())
}

func (u *UnitOfWorkImpl) UserSettingsRepository() contract.UserSettingsRepository {
	return implementation.NewUserSettingsRepository(u.conn())
}
