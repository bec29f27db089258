package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-assistant-be/pkg/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config encapsulates search parameters
type Config struct {
	Concurrency    int
	TopK           int
	TaskTimeout    time.Duration
	WebMaxResults  int
	ExpansionLimit int
	CrawlEnabled   bool
	CrawlTopN      int
	CrawlTimeout   time.Duration
	MaxCitations   int
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		Concurrency:    4,
		TopK:           8,
		TaskTimeout:    6 * time.Second,
		WebMaxResults:  8,
		ExpansionLimit: 2,
		CrawlEnabled:   true,
		CrawlTopN:      3,
		CrawlTimeout:   8 * time.Second,
		MaxCitations:   DefaultMaxCitations,
	}
}

// Request describes one retrieval. Collections are searched in the given order,
// which is also their priority for deduplication.
type Request struct {
	Collections []store.CollectionReference
	Query       string
	SubQueries  []string
	Filters     *store.Filters
	Web         bool
	Crawl       bool
}

// Outcome is the merged, deduplicated and ordered result of a retrieval.
type Outcome struct {
	Results             []store.SearchResult
	Citations           []store.Citation
	SearchedCollections []string
	FailedSources       []string
	SearchCount         int
}

type task struct {
	source string
	query  string
	run    func(ctx context.Context) ([]store.SearchResult, error)
}

// Orchestrator fans a request out to the document and web backends.
type Orchestrator struct {
	documents DocumentSearcher
	web       WebSearcher
	crawler   Crawler
	expander  *Expander
	cfg       Config
	logger    *zap.Logger
}

func NewOrchestrator(documents DocumentSearcher, web WebSearcher, crawler Crawler, expander *Expander, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{
		documents: documents,
		web:       web,
		crawler:   crawler,
		expander:  expander,
		cfg:       cfg,
		logger:    logger,
	}
}

// Search never fails: a backend that errors or times out contributes nothing,
// and a total outage yields an empty Outcome.
func (o *Orchestrator) Search(ctx context.Context, req Request) Outcome {
	queries := uniqueQueries(append([]string{req.Query}, req.SubQueries...))
	if len(queries) == 0 {
		return Outcome{}
	}

	var out Outcome
	tasks := o.collectionTasks(req, queries, &out)
	if req.Web && o.web != nil {
		webQueries := queries
		if o.expander != nil {
			webQueries = uniqueQueries(append(webQueries, o.expander.Expand(ctx, req.Query, o.cfg.ExpansionLimit)...))
		}
		tasks = append(tasks, o.webTasks(webQueries)...)
		out.SearchedCollections = append(out.SearchedCollections, WebSourceID)
	}
	out.SearchCount = len(tasks)

	slots, failed := o.run(ctx, tasks)
	out.FailedSources = failed

	var merged []store.SearchResult
	for _, slot := range slots {
		merged = append(merged, slot...)
	}
	merged = Deduplicate(merged)
	SortByScore(merged)

	if req.Crawl && o.cfg.CrawlEnabled && o.crawler != nil {
		merged = o.crawl(ctx, merged)
	}

	out.Results = merged
	out.Citations = BuildCitations(merged, o.cfg.MaxCitations)

	o.logger.Info("search finished",
		zap.Int("tasks", out.SearchCount),
		zap.Int("results", len(out.Results)),
		zap.Strings("collections", out.SearchedCollections),
		zap.Strings("failed", out.FailedSources),
	)
	return out
}

func (o *Orchestrator) collectionTasks(req Request, queries []string, out *Outcome) []task {
	if o.documents == nil {
		return nil
	}
	var tasks []task
	for _, ref := range req.Collections {
		ref := ref
		out.SearchedCollections = append(out.SearchedCollections, ref.ID)
		for _, q := range queries {
			q := q
			tasks = append(tasks, task{
				source: ref.ID,
				query:  q,
				run: func(ctx context.Context) ([]store.SearchResult, error) {
					results, err := o.documents.Search(ctx, ref, q, req.Filters, o.cfg.TopK)
					if err != nil {
						return nil, err
					}
					kept := results[:0]
					for _, r := range results {
						r.Score = clampScore(r.Score)
						if r.Score < ref.MinQuality {
							continue
						}
						if r.SourceID == "" {
							r.SourceID = ref.ID
						}
						kept = append(kept, r)
					}
					return kept, nil
				},
			})
		}
	}
	return tasks
}

func (o *Orchestrator) webTasks(queries []string) []task {
	tasks := make([]task, 0, len(queries))
	for _, q := range queries {
		q := q
		tasks = append(tasks, task{
			source: WebSourceID,
			query:  q,
			run: func(ctx context.Context) ([]store.SearchResult, error) {
				results, err := o.web.WebSearch(ctx, q, o.cfg.WebMaxResults)
				if err != nil {
					return nil, err
				}
				for i := range results {
					results[i].Score = clampScore(results[i].Score)
					if results[i].SourceID == "" {
						results[i].SourceID = WebSourceID
					}
				}
				return results, nil
			},
		})
	}
	return tasks
}

// run executes tasks with bounded concurrency. Each task writes only to its own
// slot, so the merge order follows task order and not completion order. The
// group is created without a shared context: one failing branch never cancels
// its siblings.
func (o *Orchestrator) run(ctx context.Context, tasks []task) ([][]store.SearchResult, []string) {
	slots := make([][]store.SearchResult, len(tasks))
	errs := make([]error, len(tasks))

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)

	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			slots[i], errs[i] = o.runTask(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	seen := make(map[string]bool)
	for i, err := range errs {
		if err == nil {
			continue
		}
		o.logger.Warn("search branch failed",
			zap.String("source", tasks[i].source),
			zap.String("query", tasks[i].query),
			zap.Error(err),
		)
		if !seen[tasks[i].source] {
			seen[tasks[i].source] = true
			failed = append(failed, tasks[i].source)
		}
	}
	return slots, failed
}

func (o *Orchestrator) runTask(ctx context.Context, t task) (results []store.SearchResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.TaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("search branch panicked: %v", r)
		}
	}()

	results, err = t.run(ctx)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (o *Orchestrator) crawl(ctx context.Context, results []store.SearchResult) []store.SearchResult {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.CrawlTimeout)
	defer cancel()

	crawled, err := o.crawler.CrawlTopURLs(ctx, results, o.cfg.CrawlTopN)
	if err != nil || len(crawled) != len(results) {
		o.logger.Warn("crawl failed, keeping snippets", zap.Error(err))
		return results
	}
	return crawled
}

func uniqueQueries(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	var out []string
	for _, q := range queries {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
