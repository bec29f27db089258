package collection

import (
	"strings"

	"ai-assistant-be/pkg/store"
)

// Level identifies which priority tier produced a resolution.
type Level int

const (
	LevelMention Level = iota + 1
	LevelAgentAllowList
	LevelAgentDefault
	LevelUserDefault
	LevelLocale
)

func (l Level) String() string {
	switch l {
	case LevelMention:
		return "mention"
	case LevelAgentAllowList:
		return "agent_allow_list"
	case LevelAgentDefault:
		return "agent_default"
	case LevelUserDefault:
		return "user_default"
	case LevelLocale:
		return "locale"
	}
	return "unknown"
}

// Input carries every signal the resolver may consult.
type Input struct {
	Mentions           []string
	Agent              *store.AgentConfig
	DefaultCollections []string
	Locale             string
}

type Resolution struct {
	Level       Level
	Collections []store.CollectionReference
}

func (r Resolution) IDs() []string {
	ids := make([]string, len(r.Collections))
	for i, c := range r.Collections {
		ids[i] = c.ID
	}
	return ids
}

// levelFunc returns the collection IDs for one tier, or nil to fall through.
type levelFunc func(c *Catalog, in Input) []string

type level struct {
	level   Level
	resolve levelFunc
}

// levels is evaluated top to bottom; the first non-empty result wins and lower
// tiers are never merged in.
var levels = []level{
	{LevelMention, fromMentions},
	{LevelAgentAllowList, fromAgentAllowList},
	{LevelAgentDefault, fromAgentDefault},
	{LevelUserDefault, fromUserDefaults},
	{LevelLocale, fromLocale},
}

type Resolver struct {
	catalog *Catalog
}

func NewResolver(catalog *Catalog) *Resolver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Resolver{catalog: catalog}
}

func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Resolve picks the collections to search. The locale tier always yields the
// primary locale's set as a last resort, so the result is never empty.
func (r *Resolver) Resolve(in Input) Resolution {
	for _, l := range levels {
		ids := l.resolve(r.catalog, in)
		if len(ids) == 0 {
			continue
		}
		return Resolution{Level: l.level, Collections: r.references(ids)}
	}
	// only reachable with a catalog that has no primary locale entry
	return Resolution{Level: LevelLocale}
}

func (r *Resolver) references(ids []string) []store.CollectionReference {
	refs := make([]store.CollectionReference, 0, len(ids))
	for _, id := range ids {
		if ref, ok := r.catalog.Lookup(id); ok {
			refs = append(refs, ref)
			continue
		}
		// explicit mentions may name collections outside the static catalog
		refs = append(refs, store.CollectionReference{ID: id, Label: id, Store: id})
	}
	return refs
}

func fromMentions(_ *Catalog, in Input) []string {
	return uniqueNonEmpty(in.Mentions, nil)
}

func fromAgentAllowList(c *Catalog, in Input) []string {
	if in.Agent == nil {
		return nil
	}
	return uniqueNonEmpty(in.Agent.AllowedCollections, c.IsKnownCollection)
}

func fromAgentDefault(c *Catalog, in Input) []string {
	if in.Agent == nil {
		return nil
	}
	return uniqueNonEmpty([]string{in.Agent.DefaultCollection}, c.IsKnownCollection)
}

func fromUserDefaults(c *Catalog, in Input) []string {
	return uniqueNonEmpty(in.DefaultCollections, c.IsKnownCollection)
}

func fromLocale(c *Catalog, in Input) []string {
	return c.ResolveLocaleDefaults(in.Locale)
}

func uniqueNonEmpty(ids []string, keep func(string) bool) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if keep != nil && !keep(id) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
