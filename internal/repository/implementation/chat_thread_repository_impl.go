package implementation

import (
	"context"
	"errors"
	"fmt"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/mapper"
	"ai-assistant-be/internal/model"
	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatThreadRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatThreadRepository(db *gorm.DB) contract.ChatThreadRepository {
	return &ChatThreadRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatThreadRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatThreadRepositoryImpl) Create(ctx context.Context, thread *entity.ChatThread) error {
	m := r.mapper.ChatThreadToModel(thread)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*thread = *r.mapper.ChatThreadToEntity(m)
	return nil
}

func (r *ChatThreadRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ChatThread{}, id).Error
}

func (r *ChatThreadRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatThread, error) {
	var m model.ChatThread
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatThreadToEntity(&m), nil
}

func (r *ChatThreadRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatThread, error) {
	var models []*model.ChatThread
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find threads: %w", err)
	}
	entities := make([]*entity.ChatThread, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatThreadToEntity(m)
	}
	return entities, nil
}

func (r *ChatThreadRepositoryImpl) UpdateLastIntent(ctx context.Context, id uuid.UUID, intent string) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatThread{}).
		Where("id = ?", id).
		Update("last_intent", intent).Error
}

func (r *ChatThreadRepositoryImpl) UpdateCompaction(ctx context.Context, thread *entity.ChatThread, expectedVersion int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ChatThread{}).
		Where("id = ? AND version = ?", thread.Id, expectedVersion).
		Updates(map[string]interface{}{
			"summary":                    thread.Summary,
			"compacted_up_to_message_id": thread.CompactedUpToMessageId,
			"compacted_message_count":    thread.CompactedMessageCount,
			"compacted_at":               thread.CompactedAt,
			"version":                    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	thread.Version = expectedVersion + 1
	return true, nil
}
