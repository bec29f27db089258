package mapper

import (
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/model"

	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func toDeletedAt(deletedAt *time.Time, isDeleted bool) gorm.DeletedAt {
	if deletedAt != nil {
		return gorm.DeletedAt{Time: *deletedAt, Valid: true}
	}
	if isDeleted {
		return gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return gorm.DeletedAt{}
}

func fromDeletedAt(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// Thread Mappers

func (m *ChatMapper) ChatThreadToEntity(t *model.ChatThread) *entity.ChatThread {
	if t == nil {
		return nil
	}
	return &entity.ChatThread{
		Id:                     t.Id,
		UserId:                 t.UserId,
		AgentId:                t.AgentId,
		Title:                  t.Title,
		Locale:                 t.Locale,
		LastIntent:             t.LastIntent,
		Summary:                t.Summary,
		CompactedUpToMessageId: t.CompactedUpToMessageId,
		CompactedMessageCount:  t.CompactedMessageCount,
		CompactedAt:            t.CompactedAt,
		Version:                t.Version,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              optionalTime(t.UpdatedAt),
		DeletedAt:              fromDeletedAt(t.DeletedAt),
		IsDeleted:              t.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatThreadToModel(t *entity.ChatThread) *model.ChatThread {
	if t == nil {
		return nil
	}
	return &model.ChatThread{
		Id:                     t.Id,
		UserId:                 t.UserId,
		AgentId:                t.AgentId,
		Title:                  t.Title,
		Locale:                 t.Locale,
		LastIntent:             t.LastIntent,
		Summary:                t.Summary,
		CompactedUpToMessageId: t.CompactedUpToMessageId,
		CompactedMessageCount:  t.CompactedMessageCount,
		CompactedAt:            t.CompactedAt,
		Version:                t.Version,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              derefTime(t.UpdatedAt),
		DeletedAt:              toDeletedAt(t.DeletedAt, t.IsDeleted),
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:           msg.Id,
		ChatThreadId: msg.ChatThreadId,
		Role:         msg.Role,
		Content:      msg.Content,
		Intent:       msg.Intent,
		CreatedAt:    msg.CreatedAt,
		UpdatedAt:    optionalTime(msg.UpdatedAt),
		DeletedAt:    fromDeletedAt(msg.DeletedAt),
		IsDeleted:    msg.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:           msg.Id,
		ChatThreadId: msg.ChatThreadId,
		Role:         msg.Role,
		Content:      msg.Content,
		Intent:       msg.Intent,
		CreatedAt:    msg.CreatedAt,
		UpdatedAt:    derefTime(msg.UpdatedAt),
		DeletedAt:    toDeletedAt(msg.DeletedAt, msg.IsDeleted),
	}
}

func (m *ChatMapper) ChatMessagesToEntities(models []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(models))
	for i, msg := range models {
		entities[i] = m.ChatMessageToEntity(msg)
	}
	return entities
}
