package intent

import (
	"regexp"
	"strings"
	"unicode"

	"ai-assistant-be/pkg/store"
)

// rule inspects a normalized message and returns a classification when it matches.
type rule struct {
	name  string
	match func(m *message, cc Context) (Classification, bool)
}

// message is the pre-processed view of the raw user text shared by all rules.
type message struct {
	raw   string
	lower string
	words []string
}

func newMessage(raw string) *message {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return &message{raw: strings.TrimSpace(raw), lower: lower, words: tokenize(lower)}
}

func (m *message) hasAny(phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(m.lower, p) {
			return true
		}
	}
	return false
}

// hasTerm matches whole words: a phrase hits only as a contiguous run of
// tokens, so "fasse" does not fire inside "erfassen".
func (m *message) hasTerm(phrases ...string) bool {
	for _, p := range phrases {
		want := tokenize(p)
		if len(want) == 0 || len(want) > len(m.words) {
			continue
		}
		for i := 0; i+len(want) <= len(m.words); i++ {
			hit := true
			for j, w := range want {
				if m.words[i+j] != w {
					hit = false
					break
				}
			}
			if hit {
				return true
			}
		}
	}
	return false
}

// heuristicRules are evaluated in order; the first match wins.
var heuristicRules = []rule{
	{"image", matchImage},
	{"research", matchResearch},
	{"web", matchWeb},
	{"example", matchExample},
	{"content_creation", matchContentCreation},
	{"greeting", matchGreeting},
	{"conversational", matchConversational},
	{"follow_up", matchFollowUp},
	{"domain", matchDomain},
	{"question", matchQuestion},
}

const (
	confidenceStrong   = 0.92
	confidenceRule     = 0.9
	confidenceQuestion = 0.86
	confidenceWeak     = 0.75
	confidenceDefault  = 0.5
	confidenceLow      = 0.3
)

// classifyHeuristic never fails: unmatched messages default to a document search.
func classifyHeuristic(raw string, cc Context) (Classification, string) {
	m := newMessage(raw)
	for _, r := range heuristicRules {
		if c, ok := r.match(m, cc); ok {
			return finalize(c, m), r.name
		}
	}
	return finalize(Classification{
		Intent:     store.IntentDocumentSearch,
		Query:      m.raw,
		Confidence: confidenceDefault,
	}, m), "default"
}

func finalize(c Classification, m *message) Classification {
	if strings.TrimSpace(c.Query) == "" {
		c.Query = m.raw
	}
	if c.Intent == store.IntentDirect && c.SubIntent == "" {
		c.SubIntent = store.SubIntentGeneral
	}
	c.SubQueries = splitSubQueries(c.Query)
	c.Complexity = complexity(m, c.SubQueries)
	return c
}

var imagePattern = regexp.MustCompile(`(?i)\b(bild|grafik|illustration|foto|image|picture|logo|sharepic)\b`)

func matchImage(m *message, cc Context) (Classification, bool) {
	creates := m.hasAny("erstelle", "generiere", "zeichne", "male ", "gestalte", "generate", "draw", "create", "design")
	if creates && imagePattern.MatchString(m.lower) {
		return Classification{Intent: store.IntentImageGeneration, Query: m.raw, Confidence: confidenceStrong}, true
	}
	if cc.HasImage && m.hasAny("bearbeite", "ändere", "edit", "hintergrund") {
		return Classification{Intent: store.IntentImageGeneration, Query: m.raw, Confidence: confidenceRule}, true
	}
	return Classification{}, false
}

func matchResearch(m *message, _ Context) (Classification, bool) {
	if m.hasAny("recherchiere", "recherche zu", "recherche über", "tiefenrecherche", "deep research", "ausführliche analyse") {
		return Classification{Intent: store.IntentDeepResearch, Query: stripTaskPrefix(m.raw), Confidence: confidenceRule}, true
	}
	return Classification{}, false
}

// A place like "im Internet" alone is a topic, not a request; it needs a search verb.
var (
	webVerbs    = []string{"suche", "such", "suchen", "finde", "find", "schau", "schaue", "durchsuche", "search", "look up"}
	webPlaces   = []string{"im internet", "im netz", "im web", "online", "the web", "the internet"}
	webExplicit = []string{"google mal", "google nach", "googel", "googeln", "search the web", "aktuelle nachrichten", "news zu"}
)

func matchWeb(m *message, _ Context) (Classification, bool) {
	if m.hasTerm(webExplicit...) || (m.hasTerm(webVerbs...) && m.hasTerm(webPlaces...)) {
		return Classification{Intent: store.IntentWebSearch, Query: stripTaskPrefix(m.raw), Confidence: confidenceRule}, true
	}
	return Classification{}, false
}

func matchExample(m *message, _ Context) (Classification, bool) {
	if m.hasAny("beispiel für", "beispiele für", "zeig mir beispiele", "vorlage für", "muster für", "example of", "examples of") {
		return Classification{Intent: store.IntentExampleLookup, Query: stripTaskPrefix(m.raw), Confidence: confidenceRule}, true
	}
	return Classification{}, false
}

// agentSynonyms maps format nouns to drafting agents. Longer phrases first.
var agentSynonyms = []struct {
	noun  string
	agent store.Agent
}{
	{"linkedin-beitrag", store.AgentLinkedIn},
	{"linkedin-post", store.AgentLinkedIn},
	{"linkedin post", store.AgentLinkedIn},
	{"pressemitteilung", store.AgentPressRelease},
	{"presseerklärung", store.AgentPressRelease},
	{"press release", store.AgentPressRelease},
	{"newsletter", store.AgentNewsletter},
	{"blogartikel", store.AgentBlog},
	{"blogbeitrag", store.AgentBlog},
	{"blogpost", store.AgentBlog},
	{"blog post", store.AgentBlog},
	{"tweet", store.AgentTwitter},
	{"thread", store.AgentTwitter},
	{"x-post", store.AgentTwitter},
	{"e-mail", store.AgentEmail},
	{"email", store.AgentEmail},
	{"mail", store.AgentEmail},
}

var creationPattern = regexp.MustCompile(`(?i)^(?:bitte\s+|kannst du\s+)?(?:erstelle|erstell|schreibe|schreib|verfasse|formuliere|entwirf|entwerfe|write|draft|create)\s+(?:mir\s+|uns\s+)?(?:einen|eine|ein|an|a)?\s*(.+?)\s+(?:über|zum|zur|zu|about|on)\s+(.+?)[.!?]*$`)

func matchContentCreation(m *message, _ Context) (Classification, bool) {
	match := creationPattern.FindStringSubmatch(m.raw)
	if match == nil {
		return Classification{}, false
	}
	format := strings.ToLower(match[1])
	for _, s := range agentSynonyms {
		if strings.Contains(format, s.noun) {
			return Classification{
				Intent:     store.IntentContentCreation,
				Agent:      s.agent,
				Query:      strings.TrimSpace(match[2]),
				Confidence: confidenceRule,
			}, true
		}
	}
	return Classification{}, false
}

var greetingPattern = regexp.MustCompile(`(?i)^(hallo|hi|hey|servus|moin|grüß gott|grüezi|guten (morgen|tag|abend)|danke|vielen dank|dankeschön|tschüss|ciao|hello|thanks|thank you|ok|okay|super)\b[\s!.,:)]*$`)

func matchGreeting(m *message, _ Context) (Classification, bool) {
	if greetingPattern.MatchString(m.raw) {
		return Classification{Intent: store.IntentDirect, SubIntent: store.SubIntentGeneral, Query: m.raw, Confidence: 0.95}, true
	}
	return Classification{}, false
}

// conversationalCues maps explicit verbs to conversational sub-intents. These stay
// below the escalation threshold since "summarize X" can also mean "find X first".
var conversationalCues = []struct {
	phrases   []string
	subIntent store.SubIntent
}{
	{[]string{"fasse", "fass", "zusammenfassung", "zusammenfassen", "summarize", "summarise", "tl;dr"}, store.SubIntentSummarize},
	{[]string{"übersetze", "übersetzen", "übersetzung", "auf englisch", "ins englische", "translate"}, store.SubIntentTranslate},
	{[]string{"vergleiche", "unterschied zwischen", "im vergleich", "compare"}, store.SubIntentCompare},
	{[]string{"erkläre", "erklären", "erklär mir", "was bedeutet", "explain"}, store.SubIntentExplain},
	{[]string{"ideen für", "brainstorm", "brainstorming", "sammle ideen", "vorschläge für"}, store.SubIntentBrainstorm},
}

func matchConversational(m *message, _ Context) (Classification, bool) {
	for _, cue := range conversationalCues {
		if m.hasTerm(cue.phrases...) {
			return Classification{Intent: store.IntentDirect, SubIntent: cue.subIntent, Query: stripTaskPrefix(m.raw), Confidence: 0.8}, true
		}
	}
	return Classification{}, false
}

var followUpPattern = regexp.MustCompile(`(?i)^(und|und was|was ist mit|wie sieht es mit|mehr dazu|noch mehr|weitere|and|what about|more)\b`)

func matchFollowUp(m *message, cc Context) (Classification, bool) {
	if cc.LastIntent == "" || !cc.LastIntent.IsLookup() || len(m.words) > 8 {
		return Classification{}, false
	}
	if followUpPattern.MatchString(m.raw) {
		return Classification{Intent: cc.LastIntent, Query: m.raw, Confidence: confidenceQuestion}, true
	}
	return Classification{}, false
}

// domainTerms indicate the user asks about material held in the collections.
var domainTerms = []string{
	"bundestag", "bundesrat", "landtag", "parlament", "nationalrat", "abgeordnete", "fraktion",
	"gesetz", "gesetzentwurf", "antrag", "anfrage", "drucksache", "plenar", "ausschuss",
	"pressemitteilung", "ministerium", "minister", "ministerin", "koalition", "opposition",
	"spd", "cdu", "csu", "grüne", "fdp", "afd", "övp", "spö", "fpö", "neos",
}

func matchDomain(m *message, _ Context) (Classification, bool) {
	for _, w := range m.words {
		for _, t := range domainTerms {
			if strings.HasPrefix(w, t) {
				return Classification{Intent: store.IntentDocumentSearch, Query: stripTaskPrefix(m.raw), Confidence: confidenceWeak}, true
			}
		}
	}
	return Classification{}, false
}

var interrogatives = []string{
	"was", "wer", "wie", "warum", "wieso", "weshalb", "wann", "wo", "woher", "wohin",
	"welche", "welcher", "welches", "ist", "sind", "kann", "gibt", "stimmt",
	"what", "who", "why", "how", "when", "where", "which", "is", "are", "can", "does", "do",
}

func matchQuestion(m *message, _ Context) (Classification, bool) {
	if hasTaskPrefix(m.raw) || len(m.words) == 0 {
		return Classification{}, false
	}
	leader := false
	for _, w := range interrogatives {
		if m.words[0] == w {
			leader = true
			break
		}
	}
	if strings.HasSuffix(m.raw, "?") || leader {
		return Classification{Intent: store.IntentDirect, SubIntent: store.SubIntentGeneral, Query: m.raw, Confidence: confidenceQuestion}, true
	}
	return Classification{}, false
}

// taskPrefixes are instruction phrases stripped down to their topic.
var taskPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:bitte\s+)?(?:erstelle|schreibe|schreib|verfasse|formuliere|entwirf)\s+(?:mir\s+)?(?:einen|eine|ein)?\s*\S+\s+(?:über|zum|zur|zu)\s+`),
	regexp.MustCompile(`(?i)^(?:bitte\s+)?(?:recherchiere|recherche)\s+(?:bitte\s+)?(?:zum|zur|zu|über|nach)?\s*`),
	regexp.MustCompile(`(?i)^(?:bitte\s+)?(?:suche|such|finde|find)\s+(?:mir\s+)?(?:im internet|im web|online)?\s*(?:nach|zu|über)?\s*`),
	regexp.MustCompile(`(?i)^(?:bitte\s+)?(?:zeig|zeige)\s+(?:mir\s+)?(?:beispiele|ein beispiel|vorlagen)\s+(?:für|zu)\s+`),
	regexp.MustCompile(`(?i)^(?:bitte\s+)?(?:fasse|erkläre|erklär|übersetze|vergleiche)\s+(?:mir\s+)?`),
	regexp.MustCompile(`(?i)^(?:please\s+)?(?:write|draft|create)\s+(?:an?\s+)?\S+(?:\s+\S+)?\s+(?:about|on)\s+`),
	regexp.MustCompile(`(?i)^(?:please\s+)?(?:search|look up|find|research)\s+(?:the web\s+)?(?:for\s+)?`),
}

func hasTaskPrefix(raw string) bool {
	for _, p := range taskPrefixes {
		if loc := p.FindStringIndex(raw); loc != nil && loc[1] > 0 {
			return true
		}
	}
	return false
}

// stripTaskPrefix turns "schreibe eine Pressemitteilung über X" into "X".
func stripTaskPrefix(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, p := range taskPrefixes {
		if loc := p.FindStringIndex(raw); loc != nil && loc[1] > 0 && loc[1] < len(raw) {
			stripped := strings.TrimSpace(raw[loc[1]:])
			stripped = strings.TrimRight(stripped, ".!")
			stripped = strings.TrimSuffix(stripped, " zusammen")
			if stripped != "" {
				return stripped
			}
		}
	}
	return raw
}

var subQuerySplit = regexp.MustCompile(`\?\s+|;\s*`)

const maxSubQueries = 4

// splitSubQueries decomposes multi-part requests; a single part yields nil.
func splitSubQueries(query string) []string {
	parts := subQuerySplit.Split(query, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimRight(p, "?"))
		if len(tokenize(p)) < 2 {
			continue
		}
		out = append(out, p)
		if len(out) == maxSubQueries {
			break
		}
	}
	if len(out) < 2 {
		return nil
	}
	return out
}

func complexity(m *message, subQueries []string) float64 {
	score := float64(len(m.words))/60 + 0.2*float64(len(subQueries))
	if score > 1 {
		return 1
	}
	return score
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}
