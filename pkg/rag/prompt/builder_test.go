package prompt

import (
	"strings"
	"testing"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestSystemBuilder_Build(t *testing.T) {
	t.Run("full prompt keeps section order", func(t *testing.T) {
		state := &store.ConversationState{
			Intent:    store.IntentContentCreation,
			TaskAgent: store.AgentTwitter,
			Query:     "Klima",
			Agent:     &store.AgentConfig{Name: "Presse", Instructions: "Schreibe im Ton der Fraktion."},
			Citations: []store.Citation{{ID: 1, Title: "Klimabericht", URL: "https://example.org/k"}},
		}
		evidence := constant.EvidenceHeader + "\n\n[1] Klimabericht (https://example.org/k)\nInhalt"

		out := NewSystemBuilder(state, "Bisher ging es um Windkraft.", evidence).Build()

		order := []string{
			constant.AssistantBasePrompt,
			"## Agent: Presse",
			"## Task\nDraft a post for X/Twitter content about: Klima.",
			constant.CompactionSummaryHeader + "\nBisher ging es um Windkraft.",
			constant.EvidenceHeader,
			"## Sources\n[1] Klimabericht - https://example.org/k",
		}
		last := -1
		for _, part := range order {
			idx := strings.Index(out, part)
			assert.Greater(t, idx, last, part)
			last = idx
		}
	})

	t.Run("lookup without evidence says so", func(t *testing.T) {
		state := &store.ConversationState{Intent: store.IntentDocumentSearch}

		out := NewSystemBuilder(state, "", "").Build()

		assert.Contains(t, out, "No matching evidence was found")
		assert.NotContains(t, out, constant.EvidenceHeader)
		assert.NotContains(t, out, "## Sources")
	})

	t.Run("direct answer has no evidence note", func(t *testing.T) {
		state := &store.ConversationState{Intent: store.IntentDirect, SubIntent: store.SubIntentGeneral}

		out := NewSystemBuilder(state, "", "").Build()

		assert.Equal(t, constant.AssistantBasePrompt, out)
	})
}
