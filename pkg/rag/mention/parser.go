package mention

import (
	"regexp"
	"sort"
	"strings"
)

// Kind indicates what a mention points at
type Kind string

const (
	KindCollection Kind = "collection"
	KindNotebook   Kind = "notebook"
)

// Mention is a single @-reference extracted from a message
type Mention struct {
	Kind        Kind
	Value       string
	OriginalRaw string
}

// ParseResult contains the mentions and the message with them removed
type ParseResult struct {
	Mentions  []Mention
	CleanText string
}

// MaxMentions is the hard limit for mentions honoured in a single message
const MaxMentions = 8

// Mention syntax:
// @collection:de_press      - collection by ID
// @notebook:nb-politik      - notebook, expanded to its collections
// @#de_press                - short form for a collection
var (
	collectionPattern = regexp.MustCompile(`@collection:([A-Za-z0-9_\-]+)`)
	notebookPattern   = regexp.MustCompile(`@notebook:([A-Za-z0-9_\-]+)`)
	shortPattern      = regexp.MustCompile(`@#([A-Za-z0-9_\-]+)`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

// Parse extracts collection and notebook mentions from a message, in the
// order they appear.
func Parse(text string) *ParseResult {
	type located struct {
		pos int
		m   Mention
	}
	var found []located

	collect := func(kind Kind, re *regexp.Regexp) {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			if len(idx) < 4 {
				continue
			}
			found = append(found, located{
				pos: idx[0],
				m:   Mention{Kind: kind, Value: text[idx[2]:idx[3]], OriginalRaw: text[idx[0]:idx[1]]},
			})
		}
	}
	collect(KindCollection, collectionPattern)
	collect(KindNotebook, notebookPattern)
	collect(KindCollection, shortPattern)

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	if len(found) > MaxMentions {
		found = found[:MaxMentions]
	}

	result := &ParseResult{}
	clean := text
	for _, f := range found {
		result.Mentions = append(result.Mentions, f.m)
		clean = strings.Replace(clean, f.m.OriginalRaw, "", 1)
	}
	result.CleanText = strings.TrimSpace(spacePattern.ReplaceAllString(clean, " "))

	return result
}

// NotebookResolver expands notebook IDs to collection IDs.
type NotebookResolver interface {
	ResolveNotebookCollections(ids []string) []string
}

// CollectionIDs flattens the mentions into collection IDs, expanding notebooks
// through nb. Message order is kept and duplicates are dropped.
func (r *ParseResult) CollectionIDs(nb NotebookResolver) []string {
	seen := make(map[string]bool)
	var out []string
	push := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	for _, m := range r.Mentions {
		switch m.Kind {
		case KindCollection:
			push(m.Value)
		case KindNotebook:
			if nb == nil {
				continue
			}
			for _, id := range nb.ResolveNotebookCollections([]string{m.Value}) {
				push(id)
			}
		}
	}
	return out
}
