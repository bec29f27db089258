package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want []float32
	}{
		{"unit already", []float32{1, 0}, []float32{1, 0}},
		{"scaled", []float32{3, 4}, []float32{0.6, 0.8}},
		{"zero vector unchanged", []float32{0, 0}, []float32{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeVector(tt.in)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}
}

func TestOllamaProvider_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "search_query: Energiewende", req.Prompt)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": []float64{2, 0, 0}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "nomic-embed-text", 3)
	vec, err := p.Embed(context.Background(), "Energiewende", TaskQuery)
	require.NoError(t, err)

	assert.Equal(t, []float32{1, 0, 0}, vec)
	assert.Equal(t, 3, p.Dimensions())
}

func TestOllamaProvider_Errors(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewOllamaProvider(srv.URL, "other", 0).Embed(context.Background(), "x", TaskDocument)
		assert.ErrorContains(t, err, "404")
	})

	t.Run("empty embedding", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"embedding":[]}`))
		}))
		defer srv.Close()

		_, err := NewOllamaProvider(srv.URL, "", 0).Embed(context.Background(), "x", TaskDocument)
		assert.Error(t, err)
	})
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("", "", "", "", 0)
	require.NoError(t, err)
	assert.IsType(t, &OllamaProvider{}, p)

	_, err = NewProvider("gemini", "", "", "", 0)
	assert.Error(t, err)

	g, err := NewProvider("gemini", "", "", "key", 256)
	require.NoError(t, err)
	assert.Equal(t, 256, g.Dimensions())

	_, err = NewProvider("jina", "", "", "", 0)
	assert.Error(t, err)
}
