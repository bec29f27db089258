package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/rag/llmjson"
	"ai-assistant-be/pkg/store"

	"go.uber.org/zap"
)

// Context is the small amount of conversation state the classifier looks at.
type Context struct {
	History    []store.Message
	LastIntent store.Intent
	Locale     string
	HasImage   bool
}

// Classification is the single result shape shared by the heuristic and LLM paths.
type Classification struct {
	Intent     store.Intent
	SubIntent  store.SubIntent
	Agent      store.Agent
	Query      string
	SubQueries []string
	Filters    *store.Filters
	Confidence float64
	Complexity float64
	Source     string // "heuristic", "llm" or "fallback"
	Rule       string
}

type Config struct {
	Threshold      float64
	Timeout        time.Duration
	MaxTokens      int
	Model          string
	FilterLLM      bool
	HistoryContext int
}

func DefaultConfig() Config {
	return Config{
		Threshold:      0.85,
		Timeout:        8 * time.Second,
		MaxTokens:      400,
		FilterLLM:      true,
		HistoryContext: 4,
	}
}

// Tool describes a downstream capability offered to the model during escalation.
type Tool struct {
	Name        string
	Agent       store.Agent
	Description string
}

var Tools = []Tool{
	{Name: string(store.IntentDirect), Description: "Small talk, questions answerable from general knowledge, or work on the conversation itself."},
	{Name: string(store.IntentDocumentSearch), Description: "Look up parliamentary documents, press releases and speeches in the indexed collections."},
	{Name: string(store.IntentWebSearch), Description: "Search the open web for current events or information outside the collections."},
	{Name: string(store.IntentDeepResearch), Description: "Multi-step research combining several web searches and full-text reading."},
	{Name: string(store.IntentExampleLookup), Description: "Find example texts or templates to model a new text on."},
	{Name: string(store.IntentImageGeneration), Description: "Create or edit an image, graphic or sharepic."},
	{Name: string(store.IntentContentCreation), Agent: store.AgentTwitter, Description: "Draft a tweet or thread."},
	{Name: string(store.IntentContentCreation), Agent: store.AgentLinkedIn, Description: "Draft a LinkedIn post."},
	{Name: string(store.IntentContentCreation), Agent: store.AgentPressRelease, Description: "Draft a press release."},
	{Name: string(store.IntentContentCreation), Agent: store.AgentBlog, Description: "Draft a blog article."},
	{Name: string(store.IntentContentCreation), Agent: store.AgentNewsletter, Description: "Draft a newsletter section."},
	{Name: string(store.IntentContentCreation), Agent: store.AgentEmail, Description: "Draft an e-mail."},
}

func toolCatalog() string {
	var sb strings.Builder
	for _, t := range Tools {
		if t.Agent != "" {
			sb.WriteString(fmt.Sprintf("- intent=%s agent=%s: %s\n", t.Name, t.Agent, t.Description))
			continue
		}
		sb.WriteString(fmt.Sprintf("- intent=%s: %s\n", t.Name, t.Description))
	}
	return sb.String()
}

type Classifier struct {
	pool   llm.Processor
	cfg    Config
	logger *zap.Logger
}

func NewClassifier(pool llm.Processor, cfg Config, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	return &Classifier{pool: pool, cfg: cfg, logger: logger}
}

// Classify runs the heuristic rules and escalates to the model only when the
// heuristic is not confident enough. It never returns an error: every failure
// degrades to the heuristic result.
func (c *Classifier) Classify(ctx context.Context, message string, cc Context) Classification {
	heuristic, rule := classifyHeuristic(message, cc)
	heuristic.Source = "heuristic"
	heuristic.Rule = rule

	result := heuristic
	if heuristic.Confidence < c.cfg.Threshold {
		result = c.escalate(ctx, message, cc, heuristic)
	}

	if result.Intent.IsLookup() {
		result.Filters = c.ExtractFilters(ctx, message)
	}

	c.logger.Debug("message classified",
		zap.String("intent", string(result.Intent)),
		zap.String("sub_intent", string(result.SubIntent)),
		zap.String("agent", string(result.Agent)),
		zap.String("source", result.Source),
		zap.String("rule", result.Rule),
		zap.Float64("confidence", result.Confidence),
	)
	return result
}

// llmClassification is the JSON contract of the escalation prompt.
type llmClassification struct {
	Intent     string   `json:"intent"`
	SubIntent  string   `json:"sub_intent"`
	Agent      string   `json:"agent"`
	Query      string   `json:"query"`
	SubQueries []string `json:"sub_queries"`
	Confidence *float64 `json:"confidence"`
}

func (c *Classifier) escalate(ctx context.Context, message string, cc Context, heuristic Classification) Classification {
	fallback := heuristic
	fallback.Source = "fallback"
	fallback.Confidence = confidenceLow

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	opts := []llm.Option{llm.WithTemperature(0.1), llm.WithMaxTokens(c.cfg.MaxTokens), llm.WithJSONMode()}
	if c.cfg.Model != "" {
		opts = append(opts, llm.WithModel(c.cfg.Model))
	}

	res := llm.Process(ctx, c.pool, llm.Request{
		Type:         llm.RequestClassify,
		SystemPrompt: fmt.Sprintf(constant.IntentClassificationPrompt, toolCatalog()),
		Messages:     c.buildMessages(message, cc),
		Options:      opts,
	})
	if !res.Success {
		c.logger.Warn("classification escalation failed", zap.String("error", res.Error))
		return fallback
	}

	var parsed llmClassification
	if err := llmjson.Unmarshal(res.Content, &parsed); err != nil {
		c.logger.Warn("classification output unparseable", zap.Error(err))
		return fallback
	}

	out, ok := validate(parsed, heuristic)
	if !ok {
		c.logger.Warn("classification output rejected", zap.String("intent", parsed.Intent), zap.String("agent", parsed.Agent))
		return fallback
	}
	return out
}

// historySnippetRunes caps each prior turn shown to the classifier.
const historySnippetRunes = 300

func (c *Classifier) buildMessages(message string, cc Context) []llm.Message {
	history := cc.History
	if n := c.cfg.HistoryContext; n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		content := h.Content
		if r := []rune(content); len(r) > historySnippetRunes {
			content = string(r[:historySnippetRunes]) + "..."
		}
		msgs = append(msgs, llm.Message{Role: h.Role, Content: content})
	}
	user := message
	if cc.HasImage {
		user += "\n\n[an image is attached]"
	}
	msgs = append(msgs, llm.Message{Role: constant.ChatMessageRoleUser, Content: user})
	return msgs
}

var validIntents = map[store.Intent]bool{
	store.IntentDirect:          true,
	store.IntentDocumentSearch:  true,
	store.IntentWebSearch:       true,
	store.IntentDeepResearch:    true,
	store.IntentExampleLookup:   true,
	store.IntentImageGeneration: true,
	store.IntentContentCreation: true,
}

var validAgents = map[store.Agent]bool{
	store.AgentTwitter:      true,
	store.AgentLinkedIn:     true,
	store.AgentPressRelease: true,
	store.AgentBlog:         true,
	store.AgentNewsletter:   true,
	store.AgentEmail:        true,
}

var validSubIntents = map[store.SubIntent]bool{
	store.SubIntentSummarize:  true,
	store.SubIntentTranslate:  true,
	store.SubIntentCompare:    true,
	store.SubIntentExplain:    true,
	store.SubIntentBrainstorm: true,
	store.SubIntentGeneral:    true,
}

// validate holds model output to the same closed vocabularies as the heuristic.
func validate(p llmClassification, heuristic Classification) (Classification, bool) {
	intent := store.Intent(strings.ToLower(strings.TrimSpace(p.Intent)))
	if !validIntents[intent] {
		return Classification{}, false
	}

	out := Classification{Intent: intent, Source: "llm", Rule: heuristic.Rule, Complexity: heuristic.Complexity}

	switch intent {
	case store.IntentContentCreation:
		agent := store.Agent(strings.ToLower(strings.TrimSpace(p.Agent)))
		if !validAgents[agent] {
			return Classification{}, false
		}
		out.Agent = agent
	case store.IntentDirect:
		sub := store.SubIntent(strings.ToLower(strings.TrimSpace(p.SubIntent)))
		if !validSubIntents[sub] {
			sub = store.SubIntentGeneral
		}
		out.SubIntent = sub
	}

	out.Query = strings.TrimSpace(p.Query)
	if out.Query == "" {
		out.Query = heuristic.Query
	}

	for _, q := range p.SubQueries {
		if q = strings.TrimSpace(q); q != "" {
			out.SubQueries = append(out.SubQueries, q)
		}
		if len(out.SubQueries) == maxSubQueries {
			break
		}
	}
	if len(out.SubQueries) < 2 {
		out.SubQueries = heuristic.SubQueries
	}

	out.Confidence = 0.7
	if p.Confidence != nil && *p.Confidence > 0 && *p.Confidence <= 1 {
		out.Confidence = *p.Confidence
	}
	return out, true
}

// ExtractFilters runs the vocabulary heuristic first and asks the model only when
// nothing was recognized. Any invalid model output means no filters.
func (c *Classifier) ExtractFilters(ctx context.Context, message string) *store.Filters {
	if f := extractHeuristicFilters(message); f != nil {
		return f
	}
	if !c.cfg.FilterLLM || c.pool == nil || len(tokenize(message)) < 4 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	opts := []llm.Option{llm.WithTemperature(0), llm.WithMaxTokens(150), llm.WithJSONMode()}
	if c.cfg.Model != "" {
		opts = append(opts, llm.WithModel(c.cfg.Model))
	}
	res := llm.Process(ctx, c.pool, llm.Request{
		Type:         llm.RequestExtractFilters,
		SystemPrompt: constant.FilterExtractionPrompt,
		Messages:     []llm.Message{{Role: constant.ChatMessageRoleUser, Content: message}},
		Options:      opts,
	})
	if !res.Success {
		return nil
	}

	var parsed llmFilters
	if err := llmjson.Unmarshal(res.Content, &parsed); err != nil {
		c.logger.Debug("filter output unparseable", zap.Error(err))
		return nil
	}
	return parsed.toFilters()
}
