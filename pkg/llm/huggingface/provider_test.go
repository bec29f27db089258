package huggingface

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

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "small-model", body["model"])
		assert.Equal(t, float64(0), body["temperature"])
		assert.Equal(t, map[string]interface{}{"type": "json_object"}, body["response_format"])
		msgs := body["messages"].([]interface{})
		assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("secret", srv.URL, "default-model")
	out, err := p.Chat(context.Background(),
		[]llm.Message{{Role: "system", Content: "json only"}, {Role: "user", Content: "hi"}},
		llm.WithModel("small-model"), llm.WithTemperature(0), llm.WithJSONMode(),
	)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http error", status: http.StatusTooManyRequests, body: `rate limited`},
		{name: "api error", status: http.StatusOK, body: `{"error":{"message":"model loading"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHuggingFaceProvider("", srv.URL, "m").Generate(context.Background(), "hi")
			assert.Error(t, err)
		})
	}
}
