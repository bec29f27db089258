package unitofwork

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/migration"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testStore = "press_test"

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, migration.Run(db, []string{testStore}))
	return db
}

func TestThreadCompactionIsOptimistic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uow := NewRepositoryFactory(db).NewUnitOfWork(ctx)

	thread := &entity.ChatThread{Id: uuid.New(), UserId: uuid.New(), Title: "integration", CreatedAt: time.Now()}
	require.NoError(t, uow.ChatThreadRepository().Create(ctx, thread))
	t.Cleanup(func() {
		_ = uow.ChatMessageRepository().DeleteByChatThreadId(ctx, thread.Id)
		_ = uow.ChatThreadRepository().Delete(ctx, thread.Id)
	})

	base := time.Now().Add(-time.Hour)
	var lastId uuid.UUID
	for i := 0; i < 3; i++ {
		msg := &entity.ChatMessage{Id: uuid.New(), ChatThreadId: thread.Id, Role: "user", Content: "m", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, uow.ChatMessageRepository().Create(ctx, msg))
		lastId = msg.Id
	}

	history, err := uow.ChatMessageRepository().FindThreadHistory(ctx, thread.Id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, lastId, history[2].Id)

	now := time.Now()
	update := &entity.ChatThread{Id: thread.Id, Summary: "s1", CompactedUpToMessageId: &lastId, CompactedMessageCount: 3, CompactedAt: &now}

	ok, err := uow.ChatThreadRepository().UpdateCompaction(ctx, update, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, update.Version)

	ok, err = uow.ChatThreadRepository().UpdateCompaction(ctx, update, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := uow.ChatThreadRepository().FindOne(ctx, specification.ByID{ID: thread.Id})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "s1", stored.Summary)
	assert.Equal(t, 1, stored.Version)
}

func TestDocumentChunkSearchInStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uow := NewRepositoryFactory(db).NewUnitOfWork(ctx)

	docId := uuid.New()
	t.Cleanup(func() { _ = uow.DocumentChunkRepository().DeleteByDocumentId(ctx, testStore, docId) })

	vec := make([]float32, 768)
	vec[0] = 1
	other := make([]float32, 768)
	other[1] = 1

	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.DocumentChunkRepository().CreateBulk(ctx, testStore, []*entity.DocumentChunk{
		{Id: uuid.New(), CollectionId: "test_press", DocumentId: docId, Title: "match", Content: "a", Metadata: map[string]string{"chamber": "bundestag"}, EmbeddingValue: vec, CreatedAt: time.Now()},
		{Id: uuid.New(), CollectionId: "test_press", DocumentId: docId, Title: "orthogonal", Content: "b", Metadata: map[string]string{"chamber": "bundestag"}, EmbeddingValue: other, CreatedAt: time.Now()},
		{Id: uuid.New(), CollectionId: "test_press", DocumentId: docId, Title: "other chamber", Content: "c", Metadata: map[string]string{"chamber": "bundesrat"}, EmbeddingValue: vec, CreatedAt: time.Now()},
	}))
	require.NoError(t, uow.Commit())

	results, err := uow.DocumentChunkRepository().SearchSimilar(ctx, contract.ChunkSearch{
		Store:        testStore,
		CollectionId: "test_press",
		Embedding:    vec,
		Metadata:     map[string]string{"chamber": "bundestag"},
		Threshold:    0.5,
		Limit:        5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "match", results[0].Chunk.Title)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)

	count, err := uow.DocumentChunkRepository().Count(ctx, testStore, "test_press")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
