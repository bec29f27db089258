package budget

import (
	"fmt"
	"strings"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/pkg/store"

	"go.uber.org/zap"
)

const ellipsis = "…"

type Config struct {
	// Budget is the total size of the evidence block, header included.
	Budget int
	// FullCount results at the top of the list may use their whole content.
	FullCount int
	// MidCount results after those are cut to at most Budget/MidDivisor.
	MidCount   int
	MidDivisor int
	// Every later result is cut to at most Budget/TailDivisor.
	TailDivisor int
	// MinExcerpt is the smallest excerpt worth including.
	MinExcerpt int
}

func DefaultConfig() Config {
	return Config{
		Budget:      6000,
		FullCount:   3,
		MidCount:    5,
		MidDivisor:  6,
		TailDivisor: 20,
		MinExcerpt:  24,
	}
}

// Allocator renders ranked results into an evidence block that never exceeds the budget.
type Allocator struct {
	cfg     Config
	counter Counter
	logger  *zap.Logger
}

func NewAllocator(cfg Config, counter Counter, logger *zap.Logger) *Allocator {
	if counter == nil {
		counter = RuneCounter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.FullCount < 0 {
		cfg.FullCount = 0
	}
	if cfg.MidDivisor <= 0 {
		cfg.MidDivisor = def.MidDivisor
	}
	if cfg.TailDivisor <= 0 {
		cfg.TailDivisor = def.TailDivisor
	}
	if cfg.MinExcerpt <= 0 {
		cfg.MinExcerpt = def.MinExcerpt
	}
	return &Allocator{cfg: cfg, counter: counter, logger: logger}
}

func (a *Allocator) Budget() int { return a.cfg.Budget }

// Allocate renders results in order. Each entry gets a share of what is left
// that is weighted by rank tier and relevance, so space an entry does not use
// carries forward to the next one. Entries with a matching citation are
// labelled with its number. No results, or no room for any, yields "".
func (a *Allocator) Allocate(results []store.SearchResult, citations []store.Citation) string {
	if len(results) == 0 || a.cfg.Budget <= 0 {
		return ""
	}

	header := constant.EvidenceHeader + "\n\n"
	remaining := a.cfg.Budget - a.counter.Count(header)
	if remaining <= 0 {
		return ""
	}

	labels := make(map[string]int, len(citations))
	for _, c := range citations {
		labels[c.URL] = c.ID
	}

	weights := make([]float64, len(results))
	var pending float64
	for i, r := range results {
		weights[i] = a.tierWeight(i) * (0.5 + clamp01(r.Score))
		pending += weights[i]
	}

	var sb strings.Builder
	sb.WriteString(header)
	included := 0

	for i, r := range results {
		share := int(float64(remaining) * weights[i] / pending)
		pending -= weights[i]
		if limit := a.tierCap(i); limit > 0 && share > limit {
			share = limit
		}

		entry := a.renderEntry(r, labels, share)
		if entry == "" {
			continue
		}
		used := a.counter.Count(entry)
		if used > remaining {
			continue
		}
		sb.WriteString(entry)
		remaining -= used
		included++
	}

	if included == 0 {
		return ""
	}

	out := strings.TrimRight(sb.String(), "\n")
	out = a.guard(out)
	a.logger.Debug("evidence allocated",
		zap.Int("results", len(results)),
		zap.Int("included", included),
		zap.Int("size", a.counter.Count(out)),
		zap.Int("budget", a.cfg.Budget),
	)
	return out
}

// renderEntry formats one result within share units, or returns "" when even a
// minimal excerpt does not fit.
func (a *Allocator) renderEntry(r store.SearchResult, labels map[string]int, share int) string {
	label := "[-]"
	if id, ok := labels[r.URL]; ok && r.URL != "" {
		label = fmt.Sprintf("[%d]", id)
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = r.SourceID
	}
	head := fmt.Sprintf("%s %s", label, title)
	if r.URL != "" {
		head += " (" + r.URL + ")"
	}
	head += "\n"
	const tail = "\n\n"

	room := share - a.counter.Count(head) - a.counter.Count(tail)
	if room < a.cfg.MinExcerpt {
		return ""
	}

	content := strings.TrimSpace(r.Content)
	if a.counter.Count(content) > room {
		cut := a.counter.Truncate(content, room-a.counter.Count(ellipsis))
		content = strings.TrimRight(cut, " \n") + ellipsis
	}
	if content == "" {
		return ""
	}
	return head + content + tail
}

func (a *Allocator) tierWeight(rank int) float64 {
	switch {
	case rank < a.cfg.FullCount:
		return 4
	case rank < a.cfg.FullCount+a.cfg.MidCount:
		return 2
	default:
		return 1
	}
}

func (a *Allocator) tierCap(rank int) int {
	switch {
	case rank < a.cfg.FullCount:
		return 0
	case rank < a.cfg.FullCount+a.cfg.MidCount:
		return a.cfg.Budget / a.cfg.MidDivisor
	default:
		return a.cfg.Budget / a.cfg.TailDivisor
	}
}

// guard enforces the budget on the joined text, whose token count can differ
// from the sum of its parts.
func (a *Allocator) guard(out string) string {
	for limit := a.cfg.Budget; a.counter.Count(out) > a.cfg.Budget && limit > 0; limit-- {
		out = a.counter.Truncate(out, limit)
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
