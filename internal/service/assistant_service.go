package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/repository/specification"
	"ai-assistant-be/internal/repository/unitofwork"
	"ai-assistant-be/pkg/events"
	"ai-assistant-be/pkg/rag/collection"
	"ai-assistant-be/pkg/rag/compaction"
	"ai-assistant-be/pkg/store"

	"github.com/google/uuid"
)

type IAssistantService interface {
	CreateThread(ctx context.Context, userId uuid.UUID, req *dto.CreateThreadRequest) (*dto.CreateThreadResponse, error)
	ListThreads(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadSummaryDTO, error)
	AppendMessage(ctx context.Context, userId uuid.UUID, req *dto.AppendMessageRequest) (*dto.AppendMessageResponse, error)
	BuildContext(ctx context.Context, userId uuid.UUID, req *dto.BuildContextRequest) (*dto.BuildContextResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, threadId uuid.UUID) (*dto.ThreadHistoryResponse, error)
	IndexDocument(ctx context.Context, req *dto.IndexDocumentRequest) (*dto.IndexDocumentResponse, error)
	UpdateSettings(ctx context.Context, userId uuid.UUID, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

// ContextPipeline fills a conversation state with evidence and a system prompt.
type ContextPipeline interface {
	Run(ctx context.Context, state *store.ConversationState) error
}

// CompactionPolicy decides when a thread is due for compaction.
type CompactionPolicy interface {
	NeedsCompaction(messageCount int, state store.CompactionState) bool
	KeepRecent() int
}

type AssistantServiceDeps struct {
	UowFactory          unitofwork.RepositoryFactory
	Pipeline            ContextPipeline
	Catalog             *collection.Catalog
	Policy              CompactionPolicy
	CompactionPublisher IPublisherService
	IndexPublisher      IPublisherService
	EventPublisher      EventPublisher
	Logger              logger.ILogger
	DefaultLocale       string
}

type assistantService struct {
	uowFactory          unitofwork.RepositoryFactory
	pipeline            ContextPipeline
	catalog             *collection.Catalog
	policy              CompactionPolicy
	compactionPublisher IPublisherService
	indexPublisher      IPublisherService
	eventPublisher      EventPublisher
	logger              logger.ILogger
	defaultLocale       string
	now                 func() time.Time
}

func NewAssistantService(deps AssistantServiceDeps) IAssistantService {
	if deps.Catalog == nil {
		deps.Catalog = collection.DefaultCatalog()
	}
	if deps.DefaultLocale == "" {
		deps.DefaultLocale = collection.PrimaryLocale
	}
	return &assistantService{
		uowFactory:          deps.UowFactory,
		pipeline:            deps.Pipeline,
		catalog:             deps.Catalog,
		policy:              deps.Policy,
		compactionPublisher: deps.CompactionPublisher,
		indexPublisher:      deps.IndexPublisher,
		eventPublisher:      deps.EventPublisher,
		logger:              deps.Logger,
		defaultLocale:       deps.DefaultLocale,
		now:                 time.Now,
	}
}

func (s *assistantService) CreateThread(ctx context.Context, userId uuid.UUID, req *dto.CreateThreadRequest) (*dto.CreateThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Unnamed thread"
	}

	thread := entity.ChatThread{
		Id:        uuid.New(),
		UserId:    userId,
		AgentId:   req.AgentId,
		Title:     title,
		Locale:    req.Locale,
		CreatedAt: s.now(),
	}
	if err := uow.ChatThreadRepository().Create(ctx, &thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	return &dto.CreateThreadResponse{Id: thread.Id}, nil
}

// ListThreads returns the user's threads, newest first.
func (s *assistantService) ListThreads(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadSummaryDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	threads, err := uow.ChatThreadRepository().FindAll(ctx,
		specification.ThreadOwnedBy{UserID: userId},
		specification.NewestFirst{},
	)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	res := make([]*dto.ThreadSummaryDTO, 0, len(threads))
	for _, t := range threads {
		res = append(res, &dto.ThreadSummaryDTO{
			Id:          t.Id,
			Title:       t.Title,
			Locale:      t.Locale,
			AgentId:     t.AgentId,
			LastIntent:  t.LastIntent,
			HasSummary:  t.Summary != "",
			CreatedAt:   t.CreatedAt,
			CompactedAt: t.CompactedAt,
		})
	}
	return res, nil
}

func (s *assistantService) AppendMessage(ctx context.Context, userId uuid.UUID, req *dto.AppendMessageRequest) (*dto.AppendMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	thread, err := s.findThread(ctx, uow, userId, req.ThreadId)
	if err != nil {
		return nil, err
	}

	msg := entity.ChatMessage{
		Id:           uuid.New(),
		ChatThreadId: thread.Id,
		Role:         req.Role,
		Content:      req.Content,
		Intent:       req.Intent,
		CreatedAt:    s.now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	count, err := uow.ChatMessageRepository().Count(ctx, specification.ByChatThreadID{ChatThreadID: thread.Id})
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	return &dto.AppendMessageResponse{
		Id:                  msg.Id,
		MessageCount:        count,
		CompactionScheduled: s.scheduleCompaction(ctx, thread, int(count)),
	}, nil
}

func (s *assistantService) BuildContext(ctx context.Context, userId uuid.UUID, req *dto.BuildContextRequest) (*dto.BuildContextResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	thread, err := s.findThread(ctx, uow, userId, req.ThreadId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindThreadHistory(ctx, thread.Id)
	if err != nil {
		return nil, fmt.Errorf("load thread history: %w", err)
	}

	settings := s.loadSettings(ctx, uow, userId)
	agentId := req.AgentId
	if agentId == nil {
		agentId = thread.AgentId
	}

	cs := compactionStateOf(thread)
	state := &store.ConversationState{
		ThreadID:           thread.Id.String(),
		UserID:             userId.String(),
		Message:            req.Message,
		History:            toStoreMessages(messages),
		Locale:             firstNonEmpty(req.Locale, thread.Locale, settings.Locale, s.defaultLocale),
		HasImage:           req.HasImage,
		Agent:              s.loadAgent(ctx, uow, agentId),
		DefaultCollections: s.catalog.ResolveNotebookCollections(settings.DefaultNotebooks),
		LastIntent:         store.Intent(thread.LastIntent),
		Compaction:         &cs,
	}

	if err := s.pipeline.Run(ctx, state); err != nil {
		return nil, err
	}

	var messageId *uuid.UUID
	if req.Persist {
		msg := entity.ChatMessage{
			Id:           uuid.New(),
			ChatThreadId: thread.Id,
			Role:         constant.ChatMessageRoleUser,
			Content:      req.Message,
			Intent:       string(state.Intent),
			CreatedAt:    s.now(),
		}
		if err := uow.ChatMessageRepository().Create(ctx, &msg); err != nil {
			return nil, fmt.Errorf("persist message: %w", err)
		}
		messageId = &msg.Id
		s.scheduleCompaction(ctx, thread, len(messages)+1)
	}

	if err := uow.ChatThreadRepository().UpdateLastIntent(ctx, thread.Id, string(state.Intent)); err != nil {
		s.logger.Warn("ASSISTANT", "Failed to store last intent", map[string]interface{}{
			"thread_id": thread.Id.String(),
			"error":     err.Error(),
		})
	}

	s.publishRetrieval(ctx, state)
	return toBuildContextResponse(thread.Id, messageId, state), nil
}

func (s *assistantService) GetHistory(ctx context.Context, userId uuid.UUID, threadId uuid.UUID) (*dto.ThreadHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	thread, err := s.findThread(ctx, uow, userId, threadId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindThreadHistory(ctx, thread.Id)
	if err != nil {
		return nil, fmt.Errorf("load thread history: %w", err)
	}

	keep := compaction.DefaultKeepRecent
	if s.policy != nil {
		keep = s.policy.KeepRecent()
	}
	h := compaction.AssembleHistory(toStoreMessages(messages), compactionStateOf(thread), keep)

	return &dto.ThreadHistoryResponse{
		ThreadId:               thread.Id,
		Summary:                h.Summary,
		CompactedUpToMessageId: thread.CompactedUpToMessageId,
		TotalMessages:          len(messages),
		Messages:               toMessageDTOs(h.Messages),
	}, nil
}

func (s *assistantService) IndexDocument(ctx context.Context, req *dto.IndexDocumentRequest) (*dto.IndexDocumentResponse, error) {
	if !s.catalog.IsKnownCollection(req.CollectionId) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, req.CollectionId)
	}
	if req.DocumentId == uuid.Nil {
		req.DocumentId = uuid.New()
	}

	payload, err := json.Marshal(dto.PublishIndexDocumentMessage{Document: *req})
	if err != nil {
		return nil, err
	}
	if err := s.indexPublisher.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("queue document: %w", err)
	}

	return &dto.IndexDocumentResponse{DocumentId: req.DocumentId}, nil
}

func (s *assistantService) UpdateSettings(ctx context.Context, userId uuid.UUID, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	notebooks := make([]string, 0, len(req.DefaultNotebooks))
	for _, id := range req.DefaultNotebooks {
		if s.catalog.IsKnownNotebook(id) {
			notebooks = append(notebooks, strings.TrimSpace(id))
		}
	}

	settings := entity.UserSettings{
		UserId:           userId,
		Locale:           req.Locale,
		DefaultNotebooks: notebooks,
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UserSettingsRepository().Upsert(ctx, &settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	return &dto.SettingsResponse{
		Locale:           settings.Locale,
		DefaultNotebooks: notebooks,
	}, nil
}

// findThread is the only lookup whose failure aborts a request.
func (s *assistantService) findThread(ctx context.Context, uow unitofwork.UnitOfWork, userId, threadId uuid.UUID) (*entity.ChatThread, error) {
	thread, err := uow.ChatThreadRepository().FindOne(ctx,
		specification.ByID{ID: threadId},
		specification.ThreadOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}
	return thread, nil
}

func (s *assistantService) loadSettings(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) entity.UserSettings {
	settings, err := uow.UserSettingsRepository().FindByUserId(ctx, userId)
	if err != nil {
		s.logger.Warn("ASSISTANT", "User settings unavailable, using defaults", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return entity.UserSettings{UserId: userId}
	}
	if settings == nil {
		return entity.UserSettings{UserId: userId}
	}
	return *settings
}

func (s *assistantService) loadAgent(ctx context.Context, uow unitofwork.UnitOfWork, agentId *uuid.UUID) *store.AgentConfig {
	if agentId == nil {
		return nil
	}
	agent, err := uow.AgentConfigRepository().FindOne(ctx,
		specification.ByID{ID: *agentId},
		specification.ActiveOnly{},
	)
	if err != nil {
		s.logger.Warn("ASSISTANT", "Agent config unavailable, continuing without agent", map[string]interface{}{
			"agent_id": agentId.String(),
			"error":    err.Error(),
		})
		return nil
	}
	if agent == nil {
		return nil
	}
	return &store.AgentConfig{
		ID:                 agent.Id.String(),
		Name:               agent.Name,
		Instructions:       agent.Instructions,
		AllowedCollections: agent.AllowedCollections,
		DefaultCollection:  agent.DefaultCollection,
	}
}

func (s *assistantService) scheduleCompaction(ctx context.Context, thread *entity.ChatThread, messageCount int) bool {
	if s.policy == nil || s.compactionPublisher == nil {
		return false
	}
	if !s.policy.NeedsCompaction(messageCount, compactionStateOf(thread)) {
		return false
	}

	payload, err := json.Marshal(dto.PublishCompactionMessage{ThreadId: thread.Id})
	if err == nil {
		err = s.compactionPublisher.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Warn("ASSISTANT", "Failed to schedule compaction", map[string]interface{}{
			"thread_id": thread.Id.String(),
			"error":     err.Error(),
		})
		return false
	}
	return true
}

func (s *assistantService) publishRetrieval(ctx context.Context, state *store.ConversationState) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.NewRetrievalCompleted(events.RetrievalSummary{
		ThreadID:    state.ThreadID,
		UserID:      state.UserID,
		Intent:      string(state.Intent),
		ResolvedBy:  state.ResolvedBy,
		Searched:    state.SearchedCollections,
		Results:     len(state.SearchResults),
		Citations:   len(state.Citations),
		SearchCount: state.Counters.SearchCount,
		Elapsed:     state.Counters.TotalElapsed,
	}, s.now())

	// Auditing is auxiliary; a broker outage never fails the request.
	if err := s.eventPublisher.Publish(ctx, evt); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("ASSISTANT", "Failed to publish retrieval_completed event", map[string]interface{}{
			"thread_id": state.ThreadID,
			"error":     err.Error(),
		})
	}
}

func toBuildContextResponse(threadId uuid.UUID, messageId *uuid.UUID, state *store.ConversationState) *dto.BuildContextResponse {
	evidence := make([]dto.EvidenceDTO, 0, len(state.SearchResults))
	for _, r := range state.SearchResults {
		evidence = append(evidence, dto.EvidenceDTO{
			SourceId:   r.SourceID,
			DocumentId: r.DocumentID,
			Title:      r.Title,
			Url:        r.URL,
			Score:      r.Score,
		})
	}

	citations := make([]dto.CitationDTO, 0, len(state.Citations))
	for _, c := range state.Citations {
		citations = append(citations, dto.CitationDTO{Id: c.ID, Title: c.Title, Url: c.URL})
	}

	searched := state.SearchedCollections
	if searched == nil {
		searched = []string{}
	}

	return &dto.BuildContextResponse{
		ThreadId:            threadId,
		MessageId:           messageId,
		Intent:              string(state.Intent),
		SubIntent:           string(state.SubIntent),
		Agent:               string(state.TaskAgent),
		Query:               state.Query,
		SubQueries:          state.SubQueries,
		Confidence:          state.Confidence,
		ResolvedBy:          state.ResolvedBy,
		SearchedCollections: searched,
		SystemPrompt:        state.SystemPrompt,
		History:             toMessageDTOs(state.History),
		Evidence:            evidence,
		Citations:           citations,
		Stats: dto.ContextStatsDTO{
			SearchCount:     state.Counters.SearchCount,
			ClassifyMillis:  state.Counters.ClassifyElapsed.Milliseconds(),
			SearchMillis:    state.Counters.SearchElapsed.Milliseconds(),
			RerankMillis:    state.Counters.RerankElapsed.Milliseconds(),
			BudgetMillis:    state.Counters.BudgetElapsed.Milliseconds(),
			TotalMillis:     state.Counters.TotalElapsed.Milliseconds(),
			EvidenceEntries: len(state.SearchResults),
		},
	}
}

func toMessageDTOs(messages []store.Message) []dto.MessageDTO {
	out := make([]dto.MessageDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, dto.MessageDTO{
			Id:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
