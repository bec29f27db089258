package factory

import (
	"testing"

	"ai-assistant-be/pkg/llm/huggingface"
	"ai-assistant-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("ollama", "llama3", "", "")
	require.NoError(t, err)
	op, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", op.BaseURL)

	p, err = NewLLMProvider("huggingface", "qwen", "", "hf_key")
	require.NoError(t, err)
	assert.IsType(t, &huggingface.HuggingFaceProvider{}, p)

	_, err = NewLLMProvider("huggingface", "qwen", "", "")
	assert.Error(t, err)

	_, err = NewLLMProvider("openai", "gpt", "", "")
	assert.Error(t, err)
}
