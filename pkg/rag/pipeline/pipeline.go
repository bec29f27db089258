package pipeline

import (
	"context"
	"time"

	"ai-assistant-be/pkg/rag/budget"
	"ai-assistant-be/pkg/rag/collection"
	"ai-assistant-be/pkg/rag/compaction"
	"ai-assistant-be/pkg/rag/intent"
	"ai-assistant-be/pkg/rag/mention"
	"ai-assistant-be/pkg/rag/prompt"
	"ai-assistant-be/pkg/rag/rerank"
	"ai-assistant-be/pkg/rag/search"
	"ai-assistant-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CompactionPolicy keeps thread history bounded. Summarization itself runs in
// the compaction consumer; the pipeline only reads the stored state.
type CompactionPolicy interface {
	NeedsCompaction(messageCount int, state store.CompactionState) bool
	KeepRecent() int
}

type Deps struct {
	Classifier   *intent.Classifier
	Resolver     *collection.Resolver
	Orchestrator *search.Orchestrator
	Reranker     *rerank.Reranker
	Allocator    *budget.Allocator
	Compaction   CompactionPolicy
	MaxCitations int
	Logger       *zap.Logger
}

// Pipeline turns one user message into retrieved evidence and a system prompt.
type Pipeline struct {
	deps   Deps
	tracer trace.Tracer
	logger *zap.Logger
}

func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Resolver == nil {
		deps.Resolver = collection.NewResolver(nil)
	}
	if deps.Allocator == nil {
		deps.Allocator = budget.NewAllocator(budget.DefaultConfig(), budget.RuneCounter{}, logger)
	}
	if deps.MaxCitations <= 0 {
		deps.MaxCitations = search.DefaultMaxCitations
	}
	return &Pipeline{deps: deps, tracer: otel.Tracer("pipeline"), logger: logger}
}

// Run fills state in stage order. Enhancements that fail degrade silently;
// Run itself only fails when ctx is done before any work started.
func (p *Pipeline) Run(ctx context.Context, state *store.ConversationState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attribute.String("thread_id", state.ThreadID)))
	defer span.End()

	text := p.parseMentions(state)
	p.classify(ctx, state, text)

	p.checkCompaction(ctx, state)
	if state.Intent.IsLookup() {
		p.retrieve(ctx, state)
	}

	summary := p.assembleHistory(state)
	state.SystemPrompt = prompt.NewSystemBuilder(state, summary, state.Evidence).Build()
	state.Counters.TotalElapsed = time.Since(start)

	span.SetAttributes(
		attribute.String("intent", string(state.Intent)),
		attribute.Int("results", len(state.SearchResults)),
		attribute.Int("search_count", state.Counters.SearchCount),
	)
	p.logger.Info("pipeline finished",
		zap.String("thread_id", state.ThreadID),
		zap.String("intent", string(state.Intent)),
		zap.String("resolved_by", state.ResolvedBy),
		zap.Strings("searched", state.SearchedCollections),
		zap.Int("results", len(state.SearchResults)),
		zap.Int("citations", len(state.Citations)),
		zap.Duration("elapsed", state.Counters.TotalElapsed),
	)
	return nil
}

func (p *Pipeline) parseMentions(state *store.ConversationState) string {
	parsed := mention.Parse(state.Message)
	if ids := parsed.CollectionIDs(p.deps.Resolver.Catalog()); len(ids) > 0 {
		state.MentionedCollection = append(state.MentionedCollection, ids...)
	}
	if parsed.CleanText == "" {
		return state.Message
	}
	return parsed.CleanText
}

func (p *Pipeline) classify(ctx context.Context, state *store.ConversationState, text string) {
	ctx, span := p.tracer.Start(ctx, "pipeline.classify")
	defer span.End()
	start := time.Now()

	var cls intent.Classification
	if p.deps.Classifier != nil {
		cls = p.deps.Classifier.Classify(ctx, text, intent.Context{
			History:    state.History,
			LastIntent: state.LastIntent,
			Locale:     state.Locale,
			HasImage:   state.HasImage,
		})
	} else {
		cls = intent.Classification{Intent: store.IntentDocumentSearch, Query: text, Source: "default"}
	}

	state.Intent = cls.Intent
	state.SubIntent = cls.SubIntent
	state.TaskAgent = cls.Agent
	state.Query = cls.Query
	if state.Query == "" {
		state.Query = text
	}
	state.SubQueries = cls.SubQueries
	state.Filters = cls.Filters
	state.Complexity = cls.Complexity
	state.Confidence = cls.Confidence
	state.Counters.ClassifyElapsed = time.Since(start)

	span.SetAttributes(
		attribute.String("intent", string(cls.Intent)),
		attribute.String("source", cls.Source),
		attribute.Float64("confidence", cls.Confidence),
	)
}

func (p *Pipeline) retrieve(ctx context.Context, state *store.ConversationState) {
	if p.deps.Orchestrator == nil {
		return
	}

	req := search.Request{
		Query:      state.Query,
		SubQueries: state.SubQueries,
		Filters:    state.Filters,
	}

	if state.Intent.UsesWeb() {
		req.Web = true
		req.Crawl = state.Intent == store.IntentDeepResearch
		if len(state.MentionedCollection) > 0 {
			res := p.deps.Resolver.Resolve(collection.Input{Mentions: state.MentionedCollection})
			req.Collections = res.Collections
			state.ResolvedBy = res.Level.String()
		}
	} else {
		res := p.deps.Resolver.Resolve(collection.Input{
			Mentions:           state.MentionedCollection,
			Agent:              state.Agent,
			DefaultCollections: state.DefaultCollections,
			Locale:             state.Locale,
		})
		req.Collections = res.Collections
		state.ResolvedBy = res.Level.String()
	}
	if state.Intent == store.IntentExampleLookup && (req.Filters == nil || len(req.Filters.ContentTypes) == 0) {
		f := store.Filters{}
		if req.Filters != nil {
			f = *req.Filters
		}
		f.ContentTypes = []string{"example"}
		req.Filters = &f
	}
	state.Collections = req.Collections

	searchCtx, span := p.tracer.Start(ctx, "pipeline.search")
	start := time.Now()
	out := p.deps.Orchestrator.Search(searchCtx, req)
	state.Counters.SearchElapsed = time.Since(start)
	state.Counters.SearchCount = out.SearchCount
	state.SearchedCollections = out.SearchedCollections
	span.SetAttributes(attribute.Int("results", len(out.Results)), attribute.StringSlice("failed", out.FailedSources))
	span.End()

	results := out.Results
	if p.deps.Reranker != nil && len(results) > 1 {
		rerankCtx, span := p.tracer.Start(ctx, "pipeline.rerank")
		start := time.Now()
		var applied bool
		results, applied = p.deps.Reranker.Rerank(rerankCtx, state.Query, results)
		state.Counters.RerankElapsed = time.Since(start)
		span.SetAttributes(attribute.Bool("applied", applied))
		span.End()
	}

	state.SearchResults = results
	state.Citations = search.BuildCitations(results, p.deps.MaxCitations)

	start = time.Now()
	state.Evidence = p.deps.Allocator.Allocate(results, state.Citations)
	state.Counters.BudgetElapsed = time.Since(start)
}

// checkCompaction only flags due threads; summaries run in the compaction consumer.
func (p *Pipeline) checkCompaction(ctx context.Context, state *store.ConversationState) {
	if p.deps.Compaction == nil || state.ThreadID == "" {
		return
	}
	_, span := p.tracer.Start(ctx, "pipeline.compaction_check")
	defer span.End()

	var cs store.CompactionState
	if state.Compaction != nil {
		cs = *state.Compaction
	}
	state.CompactionDue = p.deps.Compaction.NeedsCompaction(len(state.History)+1, cs)
	span.SetAttributes(attribute.Bool("due", state.CompactionDue))
}

// assembleHistory swaps folded messages for the summary and returns the summary text.
func (p *Pipeline) assembleHistory(state *store.ConversationState) string {
	if state.Compaction == nil {
		return ""
	}
	keep := compaction.DefaultKeepRecent
	if p.deps.Compaction != nil {
		keep = p.deps.Compaction.KeepRecent()
	}
	h := compaction.AssembleHistory(state.History, *state.Compaction, keep)
	state.History = h.Messages
	return h.Summary
}
