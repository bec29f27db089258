package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/rag/llmjson"
	"ai-assistant-be/pkg/store"

	"go.uber.org/zap"
)

const (
	MinScore = 1
	MaxScore = 5
)

var ErrNoScores = errors.New("rerank output has no scores")

// Score is one accepted judgement for the candidate at Index.
type Score struct {
	Index int
	Value int
}

type rawScore struct {
	Index *float64 `json:"index"`
	Score *float64 `json:"score"`
}

type rawScores struct {
	Scores []rawScore `json:"scores"`
}

// ParseScores extracts {"scores":[{"index":i,"score":s}]} from model output.
// Entries with a missing, fractional or out-of-range index or score are
// dropped one by one; a repeated index keeps its first score.
func ParseScores(raw string, n int) ([]Score, error) {
	obj, err := llmjson.ExtractObject(raw)
	if err != nil {
		return nil, err
	}

	var parsed rawScores
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	if parsed.Scores == nil {
		return nil, ErrNoScores
	}

	seen := make(map[int]bool, len(parsed.Scores))
	accepted := make([]Score, 0, len(parsed.Scores))
	for _, s := range parsed.Scores {
		idx, ok := asInt(s.Index)
		if !ok || idx < 0 || idx >= n || seen[idx] {
			continue
		}
		val, ok := asInt(s.Score)
		if !ok || val < MinScore || val > MaxScore {
			continue
		}
		seen[idx] = true
		accepted = append(accepted, Score{Index: idx, Value: val})
	}
	return accepted, nil
}

func asInt(f *float64) (int, bool) {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) || *f != math.Trunc(*f) {
		return 0, false
	}
	return int(*f), true
}

// Normalize maps a 1..5 judgement onto [0,1].
func Normalize(score int) float64 {
	return float64(score-MinScore) / float64(MaxScore-MinScore)
}

type Config struct {
	Timeout       time.Duration
	MaxCandidates int
	ExcerptChars  int
	MaxTokens     int
	Model         string
}

func DefaultConfig() Config {
	return Config{
		Timeout:       10 * time.Second,
		MaxCandidates: 20,
		ExcerptChars:  600,
		MaxTokens:     400,
	}
}

// Reranker reorders results with a model relevance judgement.
type Reranker struct {
	pool   llm.Processor
	cfg    Config
	logger *zap.Logger
}

func NewReranker(pool llm.Processor, cfg Config, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 20
	}
	if cfg.ExcerptChars <= 0 {
		cfg.ExcerptChars = 600
	}
	return &Reranker{pool: pool, cfg: cfg, logger: logger}
}

// Rerank returns results reordered by model score and reports whether the
// judgement was applied. When the pool is unavailable or the output cannot be
// parsed the input order is returned untouched. Results the model did not
// score keep their retrieval score. Results judged irrelevant are pruned
// unless that would leave nothing.
func (r *Reranker) Rerank(ctx context.Context, query string, results []store.SearchResult) ([]store.SearchResult, bool) {
	if len(results) < 2 {
		return results, false
	}

	candidates := results
	if len(candidates) > r.cfg.MaxCandidates {
		candidates = candidates[:r.cfg.MaxCandidates]
	}

	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	opts := []llm.Option{llm.WithTemperature(0), llm.WithJSONMode()}
	if r.cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(r.cfg.MaxTokens))
	}
	if r.cfg.Model != "" {
		opts = append(opts, llm.WithModel(r.cfg.Model))
	}

	res := llm.Process(callCtx, r.pool, llm.Request{
		Type: llm.RequestRerank,
		Messages: []llm.Message{{
			Role:    constant.ChatMessageRoleUser,
			Content: fmt.Sprintf(constant.RerankPrompt, query, r.formatCandidates(candidates)),
		}},
		Options: opts,
	})
	if !res.Success {
		r.logger.Warn("rerank skipped", zap.String("reason", res.Error))
		return results, false
	}

	scores, err := ParseScores(res.Content, len(candidates))
	if err != nil || len(scores) == 0 {
		r.logger.Warn("rerank output unusable", zap.Error(err), zap.Int("accepted", len(scores)))
		return results, false
	}

	return Apply(results, scores), true
}

// Apply rescales scored entries, prunes irrelevant ones and sorts stably by score.
func Apply(results []store.SearchResult, scores []Score) []store.SearchResult {
	judged := make(map[int]int, len(scores))
	for _, s := range scores {
		judged[s.Index] = s.Value
	}

	out := make([]store.SearchResult, 0, len(results))
	var pruned []store.SearchResult
	for i, res := range results {
		v, ok := judged[i]
		if !ok {
			out = append(out, res)
			continue
		}
		res.Score = Normalize(v)
		if v == MinScore {
			pruned = append(pruned, res)
			continue
		}
		out = append(out, res)
	}
	if len(out) == 0 {
		out = pruned
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (r *Reranker) formatCandidates(results []store.SearchResult) string {
	var sb strings.Builder
	for i, res := range results {
		content := []rune(strings.Join(strings.Fields(res.Content), " "))
		if len(content) > r.cfg.ExcerptChars {
			content = append(content[:r.cfg.ExcerptChars], '…')
		}
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i, strings.TrimSpace(res.Title), string(content))
	}
	return strings.TrimSpace(sb.String())
}
