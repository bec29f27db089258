package service

import (
	"context"
	"testing"
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/pkg/rag/search"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentIndexLabelsResultsWithCollection(t *testing.T) {
	db := newMemoryDB()
	docId := uuid.New()
	db.chunks["press"] = []*entity.DocumentChunk{
		{Id: uuid.New(), CollectionId: "de_press", DocumentId: docId, Title: "Pressemitteilung", Content: "Rentenpaket", CreatedAt: time.Now()},
		{Id: uuid.New(), CollectionId: "de_speeches", DocumentId: uuid.New(), Title: "Rede", Content: "Haushalt", CreatedAt: time.Now()},
	}

	results, err := NewDocumentIndex(db).SearchSimilar(context.Background(), search.VectorQuery{
		Store:        "press",
		CollectionID: "de_press",
		Embedding:    []float32{1, 0},
		Limit:        5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "de_press", results[0].SourceID)
	assert.Equal(t, docId.String(), results[0].DocumentID)
	assert.Equal(t, "Pressemitteilung", results[0].Title)
}
