package compaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/store"

	"go.uber.org/zap"
)

const (
	DefaultThreshold  = 50
	DefaultInterval   = 50
	DefaultKeepRecent = 20
)

// ErrCompactionConflict means another writer stored a newer summary first.
var ErrCompactionConflict = errors.New("thread was compacted concurrently")

// Store reads and writes the compaction state of a thread.
type Store interface {
	// LoadThread returns the current state and all messages, oldest first.
	LoadThread(ctx context.Context, threadID string) (store.CompactionState, []store.Message, error)
	// SaveCompaction stores next only if the thread is still at expectedVersion,
	// otherwise it returns ErrCompactionConflict.
	SaveCompaction(ctx context.Context, threadID string, next store.CompactionState, expectedVersion int) error
}

type Config struct {
	Threshold        int
	Interval         int
	KeepRecent       int
	SummaryMaxTokens int
	SummaryMaxChars  int
	MessageMaxChars  int
	Timeout          time.Duration
	Model            string
}

func DefaultConfig() Config {
	return Config{
		Threshold:        DefaultThreshold,
		Interval:         DefaultInterval,
		KeepRecent:       DefaultKeepRecent,
		SummaryMaxTokens: 600,
		SummaryMaxChars:  4000,
		MessageMaxChars:  2000,
		Timeout:          45 * time.Second,
	}
}

// NeedsCompaction applies the default thresholds.
func NeedsCompaction(messageCount int, state store.CompactionState) bool {
	return needsCompaction(messageCount, state, DefaultThreshold, DefaultInterval)
}

// A thread without a summary is compacted at threshold messages. Once
// summarized it is compacted again after interval more messages than it had
// at the last compaction; an unknown count is taken as threshold.
func needsCompaction(messageCount int, state store.CompactionState, threshold, interval int) bool {
	if !state.HasSummary() {
		return messageCount >= threshold
	}
	last := state.CompactedMessageCount
	if last <= 0 {
		last = threshold
	}
	return messageCount >= last+interval
}

// History is the conversation as it is handed to the model.
type History struct {
	Summary  string
	Messages []store.Message
}

// AssembleHistory replaces everything up to the watermark with the summary and
// keeps the most recent keep messages. Without a summary the full history is
// returned unchanged.
func AssembleHistory(messages []store.Message, state store.CompactionState, keep int) History {
	if !state.HasSummary() {
		return History{Messages: messages}
	}
	if keep <= 0 {
		keep = DefaultKeepRecent
	}

	start := 0
	for i, m := range messages {
		if m.ID == state.CompactedUpToMessageID {
			start = i + 1
			break
		}
	}
	recent := messages[start:]
	if len(recent) > keep {
		recent = recent[len(recent)-keep:]
	}
	return History{Summary: state.Summary, Messages: recent}
}

// Service folds old messages of a thread into a running summary.
type Service struct {
	store  Store
	pool   llm.Processor
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func NewService(st Store, pool llm.Processor, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.KeepRecent <= 0 {
		cfg.KeepRecent = def.KeepRecent
	}
	if cfg.SummaryMaxChars <= 0 {
		cfg.SummaryMaxChars = def.SummaryMaxChars
	}
	if cfg.MessageMaxChars <= 0 {
		cfg.MessageMaxChars = def.MessageMaxChars
	}
	return &Service{store: st, pool: pool, cfg: cfg, logger: logger, now: time.Now}
}

func (s *Service) KeepRecent() int { return s.cfg.KeepRecent }

func (s *Service) NeedsCompaction(messageCount int, state store.CompactionState) bool {
	return needsCompaction(messageCount, state, s.cfg.Threshold, s.cfg.Interval)
}

// Result describes one compaction attempt.
type Result struct {
	Compacted bool
	State     store.CompactionState
	Messages  []store.Message
	Folded    int
}

// Compact summarizes every message older than the recent window when the
// thread is due. The new summary is generated from the whole foldable range and
// replaces the previous one. A concurrent compaction of the same thread makes
// this call return ErrCompactionConflict without writing.
func (s *Service) Compact(ctx context.Context, threadID string) (Result, error) {
	state, messages, err := s.store.LoadThread(ctx, threadID)
	if err != nil {
		return Result{}, fmt.Errorf("load thread %s: %w", threadID, err)
	}

	result := Result{State: state, Messages: messages}
	if !s.NeedsCompaction(len(messages), state) || len(messages) <= s.cfg.KeepRecent {
		return result, nil
	}

	fold := messages[:len(messages)-s.cfg.KeepRecent]
	summary, err := s.summarize(ctx, fold)
	if err != nil {
		return result, err
	}

	now := s.now()
	next := store.CompactionState{
		Summary:                summary,
		CompactedUpToMessageID: fold[len(fold)-1].ID,
		CompactedMessageCount:  len(messages),
		UpdatedAt:              &now,
		Version:                state.Version + 1,
	}

	if err := s.store.SaveCompaction(ctx, threadID, next, state.Version); err != nil {
		if errors.Is(err, ErrCompactionConflict) {
			s.logger.Info("compaction lost race, skipping",
				zap.String("thread_id", threadID),
				zap.Int("version", state.Version),
			)
			return result, err
		}
		return result, fmt.Errorf("save compaction for %s: %w", threadID, err)
	}

	s.logger.Info("thread compacted",
		zap.String("thread_id", threadID),
		zap.Int("folded", len(fold)),
		zap.Int("messages", len(messages)),
		zap.Int("summary_chars", len([]rune(summary))),
	)
	return Result{Compacted: true, State: next, Messages: messages, Folded: len(fold)}, nil
}

func (s *Service) summarize(ctx context.Context, fold []store.Message) (string, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	opts := []llm.Option{llm.WithTemperature(0.2)}
	if s.cfg.SummaryMaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(s.cfg.SummaryMaxTokens))
	}
	if s.cfg.Model != "" {
		opts = append(opts, llm.WithModel(s.cfg.Model))
	}

	res := llm.Process(ctx, s.pool, llm.Request{
		Type:         llm.RequestSummarize,
		SystemPrompt: constant.CompactionSummaryPrompt,
		Messages:     []llm.Message{{Role: constant.ChatMessageRoleUser, Content: s.transcript(fold)}},
		Options:      opts,
	})
	if !res.Success {
		return "", fmt.Errorf("summarize: %s", res.Error)
	}

	summary := strings.TrimSpace(res.Content)
	if summary == "" {
		return "", fmt.Errorf("summarize: empty summary")
	}
	if r := []rune(summary); len(r) > s.cfg.SummaryMaxChars {
		summary = strings.TrimSpace(string(r[:s.cfg.SummaryMaxChars]))
	}
	return summary, nil
}

func (s *Service) transcript(messages []store.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		content := []rune(strings.TrimSpace(m.Content))
		if len(content) > s.cfg.MessageMaxChars {
			content = append(content[:s.cfg.MessageMaxChars], '…')
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(string(content))
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}
