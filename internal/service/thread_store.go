package service

import (
	"context"
	"fmt"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/specification"
	"ai-assistant-be/internal/repository/unitofwork"
	"ai-assistant-be/pkg/rag/compaction"
	"ai-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// threadStore exposes chat threads to the compaction service.
type threadStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewThreadStore(uowFactory unitofwork.RepositoryFactory) compaction.Store {
	return &threadStore{uowFactory: uowFactory}
}

func (s *threadStore) LoadThread(ctx context.Context, threadID string) (store.CompactionState, []store.Message, error) {
	id, err := uuid.Parse(threadID)
	if err != nil {
		return store.CompactionState{}, nil, ErrThreadNotFound
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := uow.ChatThreadRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return store.CompactionState{}, nil, fmt.Errorf("find thread: %w", err)
	}
	if thread == nil {
		return store.CompactionState{}, nil, ErrThreadNotFound
	}

	messages, err := uow.ChatMessageRepository().FindThreadHistory(ctx, id)
	if err != nil {
		return store.CompactionState{}, nil, fmt.Errorf("load messages: %w", err)
	}
	return compactionStateOf(thread), toStoreMessages(messages), nil
}

func (s *threadStore) SaveCompaction(ctx context.Context, threadID string, next store.CompactionState, expectedVersion int) error {
	id, err := uuid.Parse(threadID)
	if err != nil {
		return ErrThreadNotFound
	}
	watermark, err := uuid.Parse(next.CompactedUpToMessageID)
	if err != nil {
		return ErrInvalidThreadState
	}

	thread := &entity.ChatThread{
		Id:                     id,
		Summary:                next.Summary,
		CompactedUpToMessageId: &watermark,
		CompactedMessageCount:  next.CompactedMessageCount,
		CompactedAt:            next.UpdatedAt,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	ok, err := uow.ChatThreadRepository().UpdateCompaction(ctx, thread, expectedVersion)
	if err != nil {
		return fmt.Errorf("update compaction: %w", err)
	}
	if !ok {
		return compaction.ErrCompactionConflict
	}
	return nil
}

func compactionStateOf(t *entity.ChatThread) store.CompactionState {
	cs := store.CompactionState{
		Summary:               t.Summary,
		CompactedMessageCount: t.CompactedMessageCount,
		UpdatedAt:             t.CompactedAt,
		Version:               t.Version,
	}
	if t.CompactedUpToMessageId != nil {
		cs.CompactedUpToMessageID = t.CompactedUpToMessageId.String()
	}
	return cs
}

func toStoreMessages(messages []*entity.ChatMessage) []store.Message {
	out := make([]store.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, store.Message{
			ID:        m.Id.String(),
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
