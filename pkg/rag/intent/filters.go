package intent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"ai-assistant-be/pkg/store"
)

// contentTypeSynonyms is the closed vocabulary of document kinds.
var contentTypeSynonyms = map[string]string{
	"pressemitteilung":   "press_release",
	"pressemitteilungen": "press_release",
	"presseerklärung":    "press_release",
	"press_release":      "press_release",
	"press release":      "press_release",
	"rede":               "speech",
	"reden":              "speech",
	"plenarrede":         "speech",
	"speech":             "speech",
	"antrag":             "motion",
	"anträge":            "motion",
	"motion":             "motion",
	"gesetzentwurf":      "bill",
	"gesetzentwürfe":     "bill",
	"bill":               "bill",
	"anfrage":            "inquiry",
	"anfragen":           "inquiry",
	"kleine anfrage":     "inquiry",
	"große anfrage":      "inquiry",
	"inquiry":            "inquiry",
	"protokoll":          "transcript",
	"plenarprotokoll":    "transcript",
	"transcript":         "transcript",
	"beispiel":           "example",
	"beispiele":          "example",
	"vorlage":            "example",
	"example":            "example",
}

// regionSynonyms is the closed vocabulary of regions, mapped to ISO 3166 codes.
var regionSynonyms = map[string]string{
	"deutschland":         "DE",
	"germany":             "DE",
	"bayern":              "DE-BY",
	"bavaria":             "DE-BY",
	"berlin":              "DE-BE",
	"hamburg":             "DE-HH",
	"bremen":              "DE-HB",
	"sachsen":             "DE-SN",
	"niedersachsen":       "DE-NI",
	"hessen":              "DE-HE",
	"nrw":                 "DE-NW",
	"nordrhein-westfalen": "DE-NW",
	"baden-württemberg":   "DE-BW",
	"thüringen":           "DE-TH",
	"brandenburg":         "DE-BB",
	"österreich":          "AT",
	"austria":             "AT",
	"wien":                "AT-9",
	"vienna":              "AT-9",
	"tirol":               "AT-7",
	"steiermark":          "AT-6",
	"salzburg":            "AT-5",
	"europa":              "EU",
	"eu":                  "EU",
}

var (
	rangePattern = regexp.MustCompile(`(?i)zwischen\s+(\d{4})\s+und\s+(\d{4})|between\s+(\d{4})\s+and\s+(\d{4})`)
	sincePattern = regexp.MustCompile(`(?i)\b(?:seit|ab|since|from)\s+(\d{4}-\d{2}-\d{2}|\d{4})`)
	untilPattern = regexp.MustCompile(`(?i)\b(?:bis|vor|until|before)\s+(\d{4}-\d{2}-\d{2}|\d{4})`)
	yearPattern  = regexp.MustCompile(`\b(19[9]\d|20\d{2})\b`)
)

// extractHeuristicFilters recognizes closed-vocabulary content types and regions
// plus simple year and date ranges. Person names are left in the query.
func extractHeuristicFilters(raw string) *store.Filters {
	lower := strings.ToLower(raw)
	words := tokenize(lower)
	padded := " " + strings.Join(words, " ") + " "

	f := &store.Filters{}
	f.ContentTypes = matchVocabulary(padded, contentTypeSynonyms)
	f.Regions = matchVocabulary(padded, regionSynonyms)

	switch {
	case rangePattern.MatchString(lower):
		m := rangePattern.FindStringSubmatch(lower)
		from, to := m[1], m[2]
		if from == "" {
			from, to = m[3], m[4]
		}
		f.DateFrom = startOf(from)
		f.DateTo = endOf(to)
	default:
		if m := sincePattern.FindStringSubmatch(lower); m != nil {
			f.DateFrom = startOf(m[1])
		}
		if m := untilPattern.FindStringSubmatch(lower); m != nil {
			f.DateTo = endOf(m[1])
		}
		if f.DateFrom == nil && f.DateTo == nil {
			if m := yearPattern.FindStringSubmatch(lower); m != nil {
				f.DateFrom = startOf(m[1])
				f.DateTo = endOf(m[1])
			}
		}
	}

	if f.IsEmpty() {
		return nil
	}
	return f
}

// matchVocabulary returns canonical values for every synonym found as a whole word
// or phrase, ordered by first appearance in the text.
func matchVocabulary(padded string, vocab map[string]string) []string {
	type hit struct {
		pos   int
		value string
	}
	var hits []hit
	for synonym, canonical := range vocab {
		if idx := strings.Index(padded, " "+synonym+" "); idx >= 0 {
			hits = append(hits, hit{idx, canonical})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].value < hits[j].value
	})
	seen := make(map[string]bool)
	var out []string
	for _, h := range hits {
		if !seen[h.value] {
			seen[h.value] = true
			out = append(out, h.value)
		}
	}
	return out
}

// canonicalize maps a free-text value from the model onto a closed vocabulary.
func canonicalize(value string, vocab map[string]string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", false
	}
	if c, ok := vocab[v]; ok {
		return c, true
	}
	for _, c := range vocab {
		if strings.EqualFold(c, v) {
			return c, true
		}
	}
	return "", false
}

func startOf(s string) *time.Time {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func endOf(s string) *time.Time {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	t := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return &t
}

// llmFilters is the shape the filter extraction prompt asks for.
type llmFilters struct {
	ContentType *string `json:"content_type"`
	Region      *string `json:"region"`
	DateFrom    *string `json:"date_from"`
	DateTo      *string `json:"date_to"`
	Person      *string `json:"person"`
}

// toFilters validates model output. An all-null object or any date that is not
// an ISO date collapses to no filters; a person is never turned into a filter.
func (l llmFilters) toFilters() *store.Filters {
	f := &store.Filters{}

	if l.ContentType != nil {
		if c, ok := canonicalize(*l.ContentType, contentTypeSynonyms); ok {
			f.ContentTypes = []string{c}
		}
	}
	if l.Region != nil {
		if r, ok := canonicalize(*l.Region, regionSynonyms); ok {
			f.Regions = []string{r}
		}
	}

	for _, d := range []struct {
		raw *string
		dst **time.Time
	}{{l.DateFrom, &f.DateFrom}, {l.DateTo, &f.DateTo}} {
		if d.raw == nil || strings.TrimSpace(*d.raw) == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", strings.TrimSpace(*d.raw))
		if err != nil {
			return nil
		}
		*d.dst = &t
	}

	if f.IsEmpty() {
		return nil
	}
	return f
}
