package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSendsOptions(t *testing.T) {
	var received chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Role: "assistant", Content: "hallo"}, Done: true})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "sys"},
		{Role: "model", Content: "prev"},
	}, llm.WithModel("qwen2.5"), llm.WithMaxTokens(64), llm.WithTemperature(0), llm.WithJSONMode())

	require.NoError(t, err)
	assert.Equal(t, "hallo", out)
	assert.Equal(t, "qwen2.5", received.Model)
	assert.Equal(t, "json", received.Format)
	assert.Equal(t, 64, received.Options.NumPredict)
	assert.Equal(t, 0.0, received.Options.Temperature)
	assert.Equal(t, "assistant", received.Messages[1].Role)
}

func TestChatNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing")
	_, err := p.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
