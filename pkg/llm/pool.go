package llm

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/semaphore"
)

var ErrPoolUnavailable = errors.New("llm worker pool unavailable")

// RequestType distinguishes the pipeline stages sharing the pool.
type RequestType string

const (
	RequestClassify       RequestType = "classify"
	RequestExtractFilters RequestType = "extract_filters"
	RequestRerank         RequestType = "rerank"
	RequestSummarize      RequestType = "summarize"
	RequestExpandQuery    RequestType = "expand_query"
)

type Request struct {
	Type         RequestType
	SystemPrompt string
	Messages     []Message
	Options      []Option
}

type Response struct {
	Success bool
	Content string
	Error   string
}

// Processor is the contract every pipeline stage uses to talk to a model.
type Processor interface {
	ProcessRequest(ctx context.Context, req Request) Response
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(ctx context.Context, req Request) Response

func (f ProcessorFunc) ProcessRequest(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Process calls p and reports an unavailable pool when p is nil.
func Process(ctx context.Context, p Processor, req Request) Response {
	if p == nil {
		return Response{Error: ErrPoolUnavailable.Error()}
	}
	return p.ProcessRequest(ctx, req)
}

// WorkerPool bounds the number of in-flight model calls across all request types.
type WorkerPool struct {
	provider LLMProvider
	sem      *semaphore.Weighted
	defaults map[RequestType][]Option
}

func NewWorkerPool(provider LLMProvider, workers int) *WorkerPool {
	if workers <= 0 {
		workers = 4
	}
	return &WorkerPool{
		provider: provider,
		sem:      semaphore.NewWeighted(int64(workers)),
		defaults: make(map[RequestType][]Option),
	}
}

// WithDefaults registers options applied before the request's own options for a type.
func (p *WorkerPool) WithDefaults(t RequestType, opts ...Option) *WorkerPool {
	p.defaults[t] = append(p.defaults[t], opts...)
	return p
}

func (p *WorkerPool) ProcessRequest(ctx context.Context, req Request) Response {
	if p == nil || p.provider == nil {
		return Response{Error: ErrPoolUnavailable.Error()}
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Response{Error: err.Error()}
	}
	defer p.sem.Release(1)

	history := make([]Message, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		history = append(history, Message{Role: "system", Content: req.SystemPrompt})
	}
	history = append(history, req.Messages...)

	opts := make([]Option, 0, len(p.defaults[req.Type])+len(req.Options))
	opts = append(opts, p.defaults[req.Type]...)
	opts = append(opts, req.Options...)

	out, err := p.provider.Chat(ctx, history, opts...)
	if err != nil {
		return Response{Error: err.Error()}
	}
	if strings.TrimSpace(out) == "" {
		return Response{Error: "empty model response"}
	}
	return Response{Success: true, Content: out}
}
