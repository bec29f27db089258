package collection

import (
	"sort"
	"strings"

	"ai-assistant-be/pkg/store"
)

const PrimaryLocale = "de-DE"

// Catalog is the static registry of collections, notebooks and locale defaults.
// It is built once at startup and never mutated afterwards.
type Catalog struct {
	collections   map[string]store.CollectionReference
	order         map[string]int
	notebooks     map[string][]string
	locales       map[string][]string
	primaryLocale string
}

func NewCatalog(
	collections []store.CollectionReference,
	notebooks map[string][]string,
	locales map[string][]string,
	primaryLocale string,
) *Catalog {
	c := &Catalog{
		collections:   make(map[string]store.CollectionReference, len(collections)),
		order:         make(map[string]int, len(collections)),
		notebooks:     make(map[string][]string, len(notebooks)),
		locales:       make(map[string][]string, len(locales)),
		primaryLocale: normalizeLocale(primaryLocale),
	}
	for i, ref := range collections {
		c.collections[ref.ID] = ref
		c.order[ref.ID] = i
	}
	for id, cols := range notebooks {
		c.notebooks[id] = append([]string(nil), cols...)
	}
	for loc, cols := range locales {
		c.locales[normalizeLocale(loc)] = append([]string(nil), cols...)
	}
	return c
}

// DefaultCatalog returns the built-in collection set for the German-speaking deployment.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		[]store.CollectionReference{
			{ID: "de_bundestag", Label: "Deutscher Bundestag", Store: "parliament_de", DefaultFilter: map[string]string{"chamber": "bundestag"}, MinQuality: 0.35},
			{ID: "de_bundesrat", Label: "Bundesrat", Store: "parliament_de", DefaultFilter: map[string]string{"chamber": "bundesrat"}, MinQuality: 0.35},
			{ID: "de_laender", Label: "Landtage", Store: "parliament_de_states", MinQuality: 0.4},
			{ID: "de_press", Label: "Pressemitteilungen DE", Store: "press_de", MinQuality: 0.3},
			{ID: "at_parlament", Label: "Österreichisches Parlament", Store: "parliament_at", MinQuality: 0.35},
			{ID: "at_press", Label: "Pressemitteilungen AT", Store: "press_at", MinQuality: 0.3},
			{ID: "eu_parlament", Label: "Europäisches Parlament", Store: "parliament_eu", MinQuality: 0.4},
		},
		map[string][]string{
			"nb-politik":     {"de_bundestag", "de_bundesrat"},
			"nb-laender":     {"de_laender"},
			"nb-presse":      {"de_press", "at_press"},
			"nb-oesterreich": {"at_parlament", "at_press"},
			"nb-europa":      {"eu_parlament"},
		},
		map[string][]string{
			"de":    {"de_bundestag", "de_bundesrat", "de_laender", "de_press"},
			"de-DE": {"de_bundestag", "de_bundesrat", "de_laender", "de_press"},
			"de-AT": {"at_parlament", "at_press"},
		},
		PrimaryLocale,
	)
}

func (c *Catalog) Lookup(id string) (store.CollectionReference, bool) {
	ref, ok := c.collections[id]
	return ref, ok
}

func (c *Catalog) IsKnownCollection(id string) bool {
	_, ok := c.collections[id]
	return ok
}

// Stores lists the distinct backing stores in catalog order.
func (c *Catalog) Stores() []string {
	ids := make([]string, 0, len(c.collections))
	for id := range c.collections {
		ids = append(ids, id)
	}
	c.sortByCatalog(ids)

	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		st := c.collections[id].Store
		if st == "" || seen[st] {
			continue
		}
		seen[st] = true
		out = append(out, st)
	}
	return out
}

// IsKnownNotebook reports whether id names a logical notebook.
func (c *Catalog) IsKnownNotebook(id string) bool {
	_, ok := c.notebooks[strings.TrimSpace(id)]
	return ok
}

// ResolveNotebookCollections maps notebook IDs to their collections.
// Unknown notebooks contribute nothing; the result is deduplicated and ordered
// by catalog position so any permutation of ids yields the same slice.
func (c *Catalog) ResolveNotebookCollections(ids []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		for _, col := range c.notebooks[strings.TrimSpace(id)] {
			if seen[col] {
				continue
			}
			seen[col] = true
			out = append(out, col)
		}
	}
	c.sortByCatalog(out)
	return out
}

// ResolveLocaleDefaults returns the fallback collection set for a locale.
// Unknown or empty locales resolve like the primary locale.
func (c *Catalog) ResolveLocaleDefaults(locale string) []string {
	if cols, ok := c.locales[normalizeLocale(locale)]; ok && len(cols) > 0 {
		return append([]string(nil), cols...)
	}
	return append([]string(nil), c.locales[c.primaryLocale]...)
}

func (c *Catalog) sortByCatalog(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return c.rank(ids[i]) < c.rank(ids[j])
	})
}

func (c *Catalog) rank(id string) int {
	if r, ok := c.order[id]; ok {
		return r
	}
	return len(c.order)
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}
