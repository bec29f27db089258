package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateThreadRequest struct {
	Title   string     `json:"title" validate:"max=200"`
	Locale  string     `json:"locale" validate:"omitempty,max=16"`
	AgentId *uuid.UUID `json:"agent_id,omitempty"`
}

type CreateThreadResponse struct {
	Id uuid.UUID `json:"id"`
}

type ThreadSummaryDTO struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Locale      string     `json:"locale,omitempty"`
	AgentId     *uuid.UUID `json:"agent_id,omitempty"`
	LastIntent  string     `json:"last_intent,omitempty"`
	HasSummary  bool       `json:"has_summary"`
	CreatedAt   time.Time  `json:"created_at"`
	CompactedAt *time.Time `json:"compacted_at,omitempty"`
}

type AppendMessageRequest struct {
	ThreadId uuid.UUID `json:"-"`
	Role     string    `json:"role" validate:"required,oneof=user assistant system"`
	Content  string    `json:"content" validate:"required,max=32000"`
	Intent   string    `json:"intent,omitempty" validate:"max=32"`
}

type AppendMessageResponse struct {
	Id                  uuid.UUID `json:"id"`
	MessageCount        int64     `json:"message_count"`
	CompactionScheduled bool      `json:"compaction_scheduled"`
}

type BuildContextRequest struct {
	ThreadId uuid.UUID  `json:"thread_id" validate:"required"`
	Message  string     `json:"message" validate:"required,max=8000"`
	Locale   string     `json:"locale,omitempty" validate:"omitempty,max=16"`
	AgentId  *uuid.UUID `json:"agent_id,omitempty"`
	HasImage bool       `json:"has_image,omitempty"`
	// Persist stores the message in the thread once its context is built.
	Persist bool `json:"persist,omitempty"`
}

type CitationDTO struct {
	Id    int    `json:"id"`
	Title string `json:"title"`
	Url   string `json:"url"`
}

type EvidenceDTO struct {
	SourceId   string  `json:"source_id"`
	DocumentId string  `json:"document_id,omitempty"`
	Title      string  `json:"title"`
	Url        string  `json:"url,omitempty"`
	Score      float64 `json:"score"`
}

type MessageDTO struct {
	Id        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ContextStatsDTO struct {
	SearchCount     int   `json:"search_count"`
	ClassifyMillis  int64 `json:"classify_ms"`
	SearchMillis    int64 `json:"search_ms"`
	RerankMillis    int64 `json:"rerank_ms"`
	BudgetMillis    int64 `json:"budget_ms"`
	TotalMillis     int64 `json:"total_ms"`
	EvidenceEntries int   `json:"evidence_entries"`
}

type BuildContextResponse struct {
	ThreadId            uuid.UUID       `json:"thread_id"`
	MessageId           *uuid.UUID      `json:"message_id,omitempty"`
	Intent              string          `json:"intent"`
	SubIntent           string          `json:"sub_intent,omitempty"`
	Agent               string          `json:"agent,omitempty"`
	Query               string          `json:"query"`
	SubQueries          []string        `json:"sub_queries,omitempty"`
	Confidence          float64         `json:"confidence"`
	ResolvedBy          string          `json:"resolved_by,omitempty"`
	SearchedCollections []string        `json:"searched_collections"`
	SystemPrompt        string          `json:"system_prompt"`
	History             []MessageDTO    `json:"history"`
	Evidence            []EvidenceDTO   `json:"evidence"`
	Citations           []CitationDTO   `json:"citations"`
	Stats               ContextStatsDTO `json:"stats"`
}

type ThreadHistoryResponse struct {
	ThreadId               uuid.UUID    `json:"thread_id"`
	Summary                string       `json:"summary,omitempty"`
	CompactedUpToMessageId *uuid.UUID   `json:"compacted_up_to_message_id,omitempty"`
	TotalMessages          int          `json:"total_messages"`
	Messages               []MessageDTO `json:"messages"`
}

type IndexDocumentRequest struct {
	CollectionId string            `json:"collection_id" validate:"required,max=64"`
	DocumentId   uuid.UUID         `json:"document_id"`
	Title        string            `json:"title" validate:"max=500"`
	Url          string            `json:"url" validate:"omitempty,url"`
	Content      string            `json:"content" validate:"required"`
	ContentType  string            `json:"content_type" validate:"max=32"`
	Region       string            `json:"region" validate:"max=16"`
	PublishedAt  *time.Time        `json:"published_at,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type IndexDocumentResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
}

type UpdateSettingsRequest struct {
	Locale           string   `json:"locale" validate:"omitempty,max=16"`
	DefaultNotebooks []string `json:"default_notebooks" validate:"max=10,dive,max=64"`
}

type SettingsResponse struct {
	Locale           string   `json:"locale"`
	DefaultNotebooks []string `json:"default_notebooks"`
}

// Queue payloads

type PublishCompactionMessage struct {
	ThreadId uuid.UUID `json:"thread_id"`
}

type PublishIndexDocumentMessage struct {
	Document IndexDocumentRequest `json:"document"`
}
