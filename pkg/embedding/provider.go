package embedding

import (
	"context"
	"fmt"
	"math"
)

// EmbeddingProvider turns text into a unit-length vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string, taskType TaskType) ([]float32, error)
	Dimensions() int
}

// TaskType hints asymmetric models whether the text is a query or a stored document.
type TaskType string

const (
	TaskQuery    TaskType = "RETRIEVAL_QUERY"
	TaskDocument TaskType = "RETRIEVAL_DOCUMENT"
)

// NewProvider builds the provider configured by name.
func NewProvider(kind, baseURL, model, apiKey string, dims int) (EmbeddingProvider, error) {
	switch kind {
	case "", "ollama":
		return NewOllamaProvider(baseURL, model, dims), nil
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires an api key")
		}
		return NewGeminiProvider(apiKey, model, dims), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", kind)
	}
}

// normalizeVector scales vec to unit length so cosine distance in pgvector is meaningful.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
