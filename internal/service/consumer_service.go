package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/repository/unitofwork"
	"ai-assistant-be/pkg/embedding"
	"ai-assistant-be/pkg/rag/collection"
	"ai-assistant-be/pkg/rag/compaction"
	"ai-assistant-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	indexChunkSize    = 1500
	indexChunkOverlap = 200
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// ThreadCompactor is satisfied by CompactionRunner.
type ThreadCompactor interface {
	Compact(ctx context.Context, threadID string) (compaction.Result, error)
}

type compactionConsumer struct {
	subscriber message.Subscriber
	topicName  string
	compactor  ThreadCompactor
	logger     logger.ILogger
}

func NewCompactionConsumer(subscriber message.Subscriber, topicName string, compactor ThreadCompactor, log logger.ILogger) IConsumerService {
	return &compactionConsumer{
		subscriber: subscriber,
		topicName:  topicName,
		compactor:  compactor,
		logger:     log,
	}
}

func (c *compactionConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (c *compactionConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishCompactionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.logger.Error("CONSUMER", "Invalid compaction payload", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	threadID := payload.ThreadId.String()
	res, err := c.compactor.Compact(ctx, threadID)
	switch {
	case errors.Is(err, compaction.ErrCompactionConflict):
		c.logger.Info("CONSUMER", "Compaction already done by another worker", map[string]interface{}{"thread_id": threadID})
		msg.Ack()
	case errors.Is(err, ErrThreadNotFound), errors.Is(err, ErrInvalidThreadState):
		c.logger.Warn("CONSUMER", "Skipping compaction", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
		msg.Ack()
	case err != nil:
		c.logger.Error("CONSUMER", "Compaction failed", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
		msg.Nack()
	default:
		c.logger.Info("CONSUMER", "Compaction check finished", map[string]interface{}{
			"thread_id": threadID,
			"compacted": res.Compacted,
			"folded":    res.Folded,
		})
		msg.Ack()
	}
}

type indexConsumer struct {
	subscriber        message.Subscriber
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	catalog           *collection.Catalog
	logger            logger.ILogger
}

func NewIndexConsumer(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	catalog *collection.Catalog,
	log logger.ILogger,
) IConsumerService {
	if catalog == nil {
		catalog = collection.DefaultCatalog()
	}
	return &indexConsumer{
		subscriber:        subscriber,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		catalog:           catalog,
		logger:            log,
	}
}

func (c *indexConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (c *indexConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.logger.Error("CONSUMER", "Invalid index payload", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}
	doc := payload.Document

	ref, ok := c.catalog.Lookup(doc.CollectionId)
	if !ok || doc.DocumentId == uuid.Nil {
		c.logger.Warn("CONSUMER", "Dropping document for unknown collection", map[string]interface{}{
			"collection_id": doc.CollectionId,
			"document_id":   doc.DocumentId.String(),
		})
		msg.Ack()
		return
	}

	chunks, err := c.buildChunks(ctx, doc, ref.DefaultFilter)
	if err != nil {
		c.logger.Error("CONSUMER", "Failed to embed document", map[string]interface{}{
			"document_id": doc.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	if err := c.replaceChunks(ctx, ref.Store, doc.DocumentId, chunks); err != nil {
		c.logger.Error("CONSUMER", "Failed to store document chunks", map[string]interface{}{
			"document_id": doc.DocumentId.String(),
			"store":       ref.Store,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	c.logger.Info("CONSUMER", "Document indexed", map[string]interface{}{
		"document_id":   doc.DocumentId.String(),
		"collection_id": doc.CollectionId,
		"chunks":        len(chunks),
	})
	msg.Ack()
}

func (c *indexConsumer) buildChunks(ctx context.Context, doc dto.IndexDocumentRequest, defaults map[string]string) ([]*entity.DocumentChunk, error) {
	metadata := make(map[string]string, len(doc.Metadata)+len(defaults))
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	// Collection defaults must hold for every stored chunk, or the search filter would hide it.
	for k, v := range defaults {
		metadata[k] = v
	}

	parts := utils.SplitText(doc.Content, indexChunkSize, indexChunkOverlap)
	chunks := make([]*entity.DocumentChunk, 0, len(parts))
	now := time.Now()
	for i, part := range parts {
		text := part
		if title := strings.TrimSpace(doc.Title); title != "" {
			text = title + "\n\n" + part
		}
		vec, err := c.embeddingProvider.Embed(ctx, text, embedding.TaskDocument)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}

		chunks = append(chunks, &entity.DocumentChunk{
			Id:             uuid.New(),
			CollectionId:   doc.CollectionId,
			DocumentId:     doc.DocumentId,
			Title:          doc.Title,
			Url:            doc.Url,
			Content:        part,
			ContentType:    doc.ContentType,
			Region:         doc.Region,
			PublishedAt:    doc.PublishedAt,
			ChunkIndex:     i,
			Metadata:       metadata,
			EmbeddingValue: vec,
			CreatedAt:      now,
		})
	}
	return chunks, nil
}

func (c *indexConsumer) replaceChunks(ctx context.Context, storeName string, documentId uuid.UUID, chunks []*entity.DocumentChunk) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, storeName, documentId); err != nil {
		return err
	}
	if len(chunks) > 0 {
		if err := uow.DocumentChunkRepository().CreateBulk(ctx, storeName, chunks); err != nil {
			return err
		}
	}
	return uow.Commit()
}
