package prompt

import (
	"fmt"
	"strings"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/pkg/store"
)

// SystemBuilder assembles the system prompt for one turn.
type SystemBuilder struct {
	state    *store.ConversationState
	summary  string
	evidence string
}

func NewSystemBuilder(state *store.ConversationState, summary, evidence string) *SystemBuilder {
	return &SystemBuilder{
		state:    state,
		summary:  strings.TrimSpace(summary),
		evidence: strings.TrimSpace(evidence),
	}
}

// Build writes persona, agent instructions, task, summary, evidence and sources in that order.
func (b *SystemBuilder) Build() string {
	var prompt strings.Builder

	prompt.WriteString(constant.AssistantBasePrompt)
	prompt.WriteString("\n\n")

	b.writeAgent(&prompt)
	b.writeTask(&prompt)
	b.writeSummary(&prompt)
	b.writeEvidence(&prompt)
	b.writeSources(&prompt)

	return strings.TrimSpace(prompt.String())
}

func (b *SystemBuilder) writeAgent(prompt *strings.Builder) {
	agent := b.state.Agent
	if agent == nil || strings.TrimSpace(agent.Instructions) == "" {
		return
	}
	fmt.Fprintf(prompt, "## Agent: %s\n%s\n\n", agent.Name, strings.TrimSpace(agent.Instructions))
}

func (b *SystemBuilder) writeTask(prompt *strings.Builder) {
	var task string
	switch b.state.Intent {
	case store.IntentContentCreation:
		task = fmt.Sprintf("Draft %s content about: %s. Match the format and length conventions of that channel.", taskAgentLabel(b.state.TaskAgent), b.state.Query)
	case store.IntentDeepResearch:
		task = "Write a structured research brief. Separate established facts from open points and cite every claim."
	case store.IntentWebSearch:
		task = "Answer from the current web sources below and mention how recent they are."
	case store.IntentExampleLookup:
		task = "Present the matching examples and point out what makes each one a good template."
	case store.IntentImageGeneration:
		task = "Describe the requested image as a precise generation prompt."
	case store.IntentDirect:
		task = subIntentTask(b.state.SubIntent)
	case store.IntentDocumentSearch:
		task = "Answer from the documents below."
	}
	if task == "" {
		return
	}
	prompt.WriteString("## Task\n")
	prompt.WriteString(task)
	prompt.WriteString("\n\n")
}

func subIntentTask(sub store.SubIntent) string {
	switch sub {
	case store.SubIntentSummarize:
		return "Summarize the material the user refers to."
	case store.SubIntentTranslate:
		return "Translate faithfully and keep the register."
	case store.SubIntentCompare:
		return "Compare the options point by point."
	case store.SubIntentExplain:
		return "Explain step by step in plain language."
	case store.SubIntentBrainstorm:
		return "Offer several distinct ideas."
	}
	return ""
}

func taskAgentLabel(a store.Agent) string {
	switch a {
	case store.AgentTwitter:
		return "a post for X/Twitter"
	case store.AgentLinkedIn:
		return "a LinkedIn post"
	case store.AgentPressRelease:
		return "a press release"
	case store.AgentBlog:
		return "a blog article"
	case store.AgentNewsletter:
		return "a newsletter section"
	case store.AgentEmail:
		return "an email"
	}
	return "written"
}

func (b *SystemBuilder) writeSummary(prompt *strings.Builder) {
	if b.summary == "" {
		return
	}
	prompt.WriteString(constant.CompactionSummaryHeader)
	prompt.WriteString("\n")
	prompt.WriteString(b.summary)
	prompt.WriteString("\n\n")
}

func (b *SystemBuilder) writeEvidence(prompt *strings.Builder) {
	if b.evidence != "" {
		prompt.WriteString(b.evidence)
		prompt.WriteString("\n\n")
		return
	}
	if b.state.Intent.IsLookup() {
		prompt.WriteString("No matching evidence was found. Say so and answer only from general knowledge, clearly marked as such.\n\n")
	}
}

func (b *SystemBuilder) writeSources(prompt *strings.Builder) {
	if b.evidence == "" || len(b.state.Citations) == 0 {
		return
	}
	prompt.WriteString("## Sources\n")
	for _, c := range b.state.Citations {
		fmt.Fprintf(prompt, "[%d] %s - %s\n", c.ID, c.Title, c.URL)
	}
}
