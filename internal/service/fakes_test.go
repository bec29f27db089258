package service

import (
	"context"
	"sort"
	"sync"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/specification"
	"ai-assistant-be/internal/repository/unitofwork"
	"ai-assistant-be/pkg/events"
	"ai-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// memoryDB backs every fake repository; one instance is shared by all units of work of a test.
type memoryDB struct {
	mu        sync.Mutex
	threads   map[uuid.UUID]*entity.ChatThread
	messages  []*entity.ChatMessage
	agents    map[uuid.UUID]*entity.AgentConfig
	settings  map[uuid.UUID]*entity.UserSettings
	chunks    map[string][]*entity.DocumentChunk
	commits   int
	rollbacks int
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		threads:  make(map[uuid.UUID]*entity.ChatThread),
		agents:   make(map[uuid.UUID]*entity.AgentConfig),
		settings: make(map[uuid.UUID]*entity.UserSettings),
		chunks:   make(map[string][]*entity.DocumentChunk),
	}
}

func (m *memoryDB) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memoryUow{db: m}
}

func (m *memoryDB) addThread(t *entity.ChatThread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[t.Id] = t
}

func (m *memoryDB) threadMessages(threadId uuid.UUID) []*entity.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ChatMessage
	for _, msg := range m.messages {
		if msg.ChatThreadId == threadId {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memoryDB) storeChunks(name string) []*entity.DocumentChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.DocumentChunk(nil), m.chunks[name]...)
}

type memoryUow struct {
	db   *memoryDB
	inTx bool
}

func (u *memoryUow) Begin(ctx context.Context) error {
	u.inTx = true
	return nil
}

func (u *memoryUow) Commit() error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	u.db.commits++
	u.inTx = false
	return nil
}

func (u *memoryUow) Rollback() error {
	if !u.inTx {
		return nil
	}
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	u.db.rollbacks++
	u.inTx = false
	return nil
}

func (u *memoryUow) ChatThreadRepository() contract.ChatThreadRepository {
	return &memoryThreadRepo{db: u.db}
}

func (u *memoryUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &memoryMessageRepo{db: u.db}
}

func (u *memoryUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &memoryChunkRepo{db: u.db}
}

func (u *memoryUow) AgentConfigRepository() contract.AgentConfigRepository {
	return &memoryAgentRepo{db: u.db}
}

func (u *memoryUow) UserSettingsRepository() contract.UserSettingsRepository {
	return &memorySettingsRepo{db: u.db}
}

type memoryThreadRepo struct{ db *memoryDB }

func (r *memoryThreadRepo) Create(ctx context.Context, thread *entity.ChatThread) error {
	r.db.addThread(thread)
	return nil
}

func (r *memoryThreadRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.threads, id)
	return nil
}

func (r *memoryThreadRepo) match(t *entity.ChatThread, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if t.Id != spec.ID {
				return false
			}
		case specification.ThreadOwnedBy:
			if t.UserId != spec.UserID {
				return false
			}
		}
	}
	return true
}

func (r *memoryThreadRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatThread, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.threads {
		if r.match(t, specs) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryThreadRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatThread, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.ChatThread
	for _, t := range r.db.threads {
		if r.match(t, specs) {
			cp := *t
			out = append(out, &cp)
		}
	}
	for _, s := range specs {
		if _, ok := s.(specification.NewestFirst); ok {
			sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		}
	}
	return out, nil
}

func (r *memoryThreadRepo) UpdateLastIntent(ctx context.Context, id uuid.UUID, intent string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if t, ok := r.db.threads[id]; ok {
		t.LastIntent = intent
	}
	return nil
}

func (r *memoryThreadRepo) UpdateCompaction(ctx context.Context, thread *entity.ChatThread, expectedVersion int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.threads[thread.Id]
	if !ok || t.Version != expectedVersion {
		return false, nil
	}
	t.Summary = thread.Summary
	t.CompactedUpToMessageId = thread.CompactedUpToMessageId
	t.CompactedMessageCount = thread.CompactedMessageCount
	t.CompactedAt = thread.CompactedAt
	t.Version++
	thread.Version = t.Version
	return true, nil
}

type memoryMessageRepo struct{ db *memoryDB }

func (r *memoryMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.messages = append(r.db.messages, message)
	return nil
}

func (r *memoryMessageRepo) DeleteByChatThreadId(ctx context.Context, threadId uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.messages[:0]
	for _, m := range r.db.messages {
		if m.ChatThreadId != threadId {
			kept = append(kept, m)
		}
	}
	r.db.messages = kept
	return nil
}

func (r *memoryMessageRepo) FindThreadHistory(ctx context.Context, threadId uuid.UUID) ([]*entity.ChatMessage, error) {
	return r.db.threadMessages(threadId), nil
}

func (r *memoryMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var threadId uuid.UUID
	for _, s := range specs {
		if spec, ok := s.(specification.ByChatThreadID); ok {
			threadId = spec.ChatThreadID
		}
	}
	return int64(len(r.db.threadMessages(threadId))), nil
}

type memoryChunkRepo struct{ db *memoryDB }

func (r *memoryChunkRepo) CreateBulk(ctx context.Context, storeName string, chunks []*entity.DocumentChunk) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.chunks[storeName] = append(r.db.chunks[storeName], chunks...)
	return nil
}

func (r *memoryChunkRepo) DeleteByDocumentId(ctx context.Context, storeName string, documentId uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var kept []*entity.DocumentChunk
	for _, c := range r.db.chunks[storeName] {
		if c.DocumentId != documentId {
			kept = append(kept, c)
		}
	}
	r.db.chunks[storeName] = kept
	return nil
}

func (r *memoryChunkRepo) Count(ctx context.Context, storeName string, collectionId string) (int64, error) {
	var n int64
	for _, c := range r.db.storeChunks(storeName) {
		if c.CollectionId == collectionId {
			n++
		}
	}
	return n, nil
}

func (r *memoryChunkRepo) SearchSimilar(ctx context.Context, q contract.ChunkSearch) ([]*contract.ScoredDocumentChunk, error) {
	var out []*contract.ScoredDocumentChunk
	for _, c := range r.db.storeChunks(q.Store) {
		if c.CollectionId == q.CollectionId {
			out = append(out, &contract.ScoredDocumentChunk{Chunk: c, Similarity: 0.9})
		}
	}
	return out, nil
}

type memoryAgentRepo struct{ db *memoryDB }

func (r *memoryAgentRepo) Create(ctx context.Context, agent *entity.AgentConfig) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.agents[agent.Id] = agent
	return nil
}

func (r *memoryAgentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AgentConfig, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.agents {
		ok := true
		for _, s := range specs {
			switch spec := s.(type) {
			case specification.ByID:
				ok = ok && a.Id == spec.ID
			case specification.ActiveOnly:
				ok = ok && a.IsActive
			}
		}
		if ok {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

type memorySettingsRepo struct{ db *memoryDB }

func (r *memorySettingsRepo) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.UserSettings, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.settings[userId]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memorySettingsRepo) Upsert(ctx context.Context, settings *entity.UserSettings) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *settings
	r.db.settings[settings.UserId] = &cp
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingEvents) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingEvents) all() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// stubPipeline records the state it was given and fills a fixed outcome.
type stubPipeline struct {
	seen *store.ConversationState
	fill func(state *store.ConversationState)
	err  error
}

func (p *stubPipeline) Run(ctx context.Context, state *store.ConversationState) error {
	cp := *state
	p.seen = &cp
	if p.err != nil {
		return p.err
	}
	if p.fill != nil {
		p.fill(state)
	}
	return nil
}

type fixedPolicy struct {
	due  bool
	keep int
}

func (p fixedPolicy) NeedsCompaction(messageCount int, state store.CompactionState) bool {
	return p.due
}

func (p fixedPolicy) KeepRecent() int { return p.keep }
