package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1/models/%s:embedContent"

type GeminiProvider struct {
	apiKey   string
	model    string
	dims     int
	endpoint string
	client   *http.Client
}

func NewGeminiProvider(apiKey, model string, dims int) *GeminiProvider {
	if model == "" {
		model = "text-embedding-004"
	}
	if dims <= 0 {
		dims = 768
	}
	return &GeminiProvider{
		apiKey:   apiKey,
		model:    model,
		dims:     dims,
		endpoint: fmt.Sprintf(geminiEndpoint, model),
		client:   &http.Client{},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	TaskType             string        `json:"task_type,omitempty"`
	OutputDimensionality int           `json:"output_dimensionality,omitempty"`
}

type geminiResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (p *GeminiProvider) Dimensions() int { return p.dims }

func (p *GeminiProvider) Embed(ctx context.Context, text string, taskType TaskType) ([]float32, error) {
	body, err := json.Marshal(geminiRequest{
		Model:                p.model,
		Content:              geminiContent{Parts: []geminiPart{{Text: text}}},
		TaskType:             string(taskType),
		OutputDimensionality: p.dims,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request: %w", err)
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(resByte, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return normalizeVector(parsed.Embedding.Values), nil
}
