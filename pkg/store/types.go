package store

import "time"

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentDirect          Intent = "direct"
	IntentDocumentSearch  Intent = "document_search"
	IntentWebSearch       Intent = "web_search"
	IntentDeepResearch    Intent = "deep_research"
	IntentExampleLookup   Intent = "example_lookup"
	IntentImageGeneration Intent = "image_generation"
	IntentContentCreation Intent = "content_creation"
)

// IsLookup reports whether the intent needs retrieved evidence.
func (i Intent) IsLookup() bool {
	switch i {
	case IntentDocumentSearch, IntentWebSearch, IntentDeepResearch, IntentExampleLookup, IntentContentCreation:
		return true
	}
	return false
}

// UsesWeb reports whether the intent searches the open web instead of collections.
func (i Intent) UsesWeb() bool {
	return i == IntentWebSearch || i == IntentDeepResearch
}

type SubIntent string

const (
	SubIntentSummarize  SubIntent = "summarize"
	SubIntentTranslate  SubIntent = "translate"
	SubIntentCompare    SubIntent = "compare"
	SubIntentExplain    SubIntent = "explain"
	SubIntentBrainstorm SubIntent = "brainstorm"
	SubIntentGeneral    SubIntent = "general"
)

// Agent is a downstream drafting agent for content creation.
type Agent string

const (
	AgentTwitter      Agent = "twitter"
	AgentLinkedIn     Agent = "linkedin"
	AgentPressRelease Agent = "press_release"
	AgentBlog         Agent = "blog"
	AgentNewsletter   Agent = "newsletter"
	AgentEmail        Agent = "email"
)

// Message is one turn of a conversation in a provider-agnostic format.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user", "assistant", "system"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Filters are structured metadata predicates applied to document search.
type Filters struct {
	ContentTypes []string   `json:"content_types,omitempty"`
	Regions      []string   `json:"regions,omitempty"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
}

func (f *Filters) IsEmpty() bool {
	if f == nil {
		return true
	}
	return len(f.ContentTypes) == 0 && len(f.Regions) == 0 && f.DateFrom == nil && f.DateTo == nil
}

// AgentConfig restricts which collections an agent may search.
type AgentConfig struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Instructions       string   `json:"instructions"`
	AllowedCollections []string `json:"allowed_collections"`
	DefaultCollection  string   `json:"default_collection"`
}

// CollectionReference identifies a searchable knowledge partition.
type CollectionReference struct {
	ID            string            `json:"id"`
	Label         string            `json:"label"`
	Store         string            `json:"store"`
	DefaultFilter map[string]string `json:"default_filter,omitempty"`
	MinQuality    float64           `json:"min_quality"`
}

// SearchResult is one retrieved unit of evidence. SourceID names the
// collection or channel it came from; DocumentID is set for indexed documents.
type SearchResult struct {
	SourceID    string     `json:"source_id"`
	DocumentID  string     `json:"document_id,omitempty"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	URL         string     `json:"url,omitempty"`
	Score       float64    `json:"score"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type Citation struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Counters collects per-stage metrics for one request.
type Counters struct {
	SearchCount     int           `json:"search_count"`
	ClassifyElapsed time.Duration `json:"classify_elapsed"`
	SearchElapsed   time.Duration `json:"search_elapsed"`
	RerankElapsed   time.Duration `json:"rerank_elapsed"`
	BudgetElapsed   time.Duration `json:"budget_elapsed"`
	TotalElapsed    time.Duration `json:"total_elapsed"`
}

// CompactionState is the running summary attached to a thread.
type CompactionState struct {
	Summary                string     `json:"summary"`
	CompactedUpToMessageID string     `json:"compacted_up_to_message_id"`
	CompactedMessageCount  int        `json:"compacted_message_count"`
	UpdatedAt              *time.Time `json:"updated_at,omitempty"`
	Version                int        `json:"version"`
}

func (c *CompactionState) HasSummary() bool {
	return c != nil && c.Summary != ""
}

// ConversationState is threaded through every pipeline stage of a single request.
type ConversationState struct {
	ThreadID            string
	UserID              string
	Message             string
	History             []Message
	Locale              string
	HasImage            bool
	MentionedCollection []string
	Agent               *AgentConfig
	DefaultCollections  []string
	LastIntent          Intent

	Intent     Intent
	SubIntent  SubIntent
	TaskAgent  Agent
	Query      string
	SubQueries []string
	Filters    *Filters
	Complexity float64
	Confidence float64

	ResolvedBy          string
	Collections         []CollectionReference
	SearchResults       []SearchResult
	Citations           []Citation
	SearchedCollections []string
	Evidence            string
	Compaction          *CompactionState
	CompactionDue       bool
	SystemPrompt        string

	Counters Counters
	Response string
}
