package search

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/rag/llmjson"

	"go.uber.org/zap"
)

var stopwords = map[string]bool{
	"der": true, "die": true, "das": true, "den": true, "dem": true, "des": true,
	"ein": true, "eine": true, "einen": true, "einem": true, "einer": true,
	"und": true, "oder": true, "zu": true, "zum": true, "zur": true, "im": true, "in": true,
	"von": true, "mit": true, "für": true, "über": true, "auf": true, "an": true, "am": true,
	"ist": true, "sind": true, "was": true, "wie": true, "wer": true, "welche": true,
	"hat": true, "haben": true, "es": true, "sich": true, "nach": true, "bei": true,
	"the": true, "a": true, "of": true, "to": true, "and": true, "or": true,
	"is": true, "are": true, "what": true, "how": true, "for": true, "on": true, "about": true,
}

// Expander proposes lexical variants of a query for web searches.
type Expander struct {
	pool    llm.Processor
	useLLM  bool
	timeout time.Duration
	model   string
	logger  *zap.Logger
}

func NewExpander(pool llm.Processor, useLLM bool, model string, logger *zap.Logger) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{pool: pool, useLLM: useLLM, timeout: 5 * time.Second, model: model, logger: logger}
}

// Expand returns at most limit variants that differ from query. A keyword-only
// variant is always tried first; model variants fill the rest when available.
func (e *Expander) Expand(ctx context.Context, query string, limit int) []string {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	seen := map[string]bool{normalizeQuery(query): true}
	var variants []string
	add := func(v string) {
		key := normalizeQuery(v)
		if key == "" || seen[key] || len(variants) >= limit {
			return
		}
		seen[key] = true
		variants = append(variants, strings.TrimSpace(v))
	}

	add(keywordVariant(query))
	if len(variants) < limit && e.useLLM {
		for _, v := range e.llmVariants(ctx, query, limit) {
			add(v)
		}
	}
	return variants
}

func (e *Expander) llmVariants(ctx context.Context, query string, limit int) []string {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	opts := []llm.Option{llm.WithTemperature(0.3), llm.WithMaxTokens(120)}
	if e.model != "" {
		opts = append(opts, llm.WithModel(e.model))
	}
	res := llm.Process(ctx, e.pool, llm.Request{
		Type:     llm.RequestExpandQuery,
		Messages: []llm.Message{{Role: constant.ChatMessageRoleUser, Content: fmt.Sprintf(constant.QueryExpansionPrompt, query, limit)}},
		Options:  opts,
	})
	if !res.Success {
		return nil
	}

	var variants []string
	if err := llmjson.Unmarshal(res.Content, &variants); err != nil {
		e.logger.Debug("expansion output unparseable", zap.Error(err))
		return nil
	}
	return variants
}

// keywordVariant drops stopwords and punctuation.
func keywordVariant(query string) string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	var kept []string
	for _, w := range words {
		if stopwords[strings.ToLower(w)] {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) < 2 {
		return ""
	}
	return strings.Join(kept, " ")
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
