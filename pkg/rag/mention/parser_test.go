package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticNotebooks map[string][]string

func (s staticNotebooks) ResolveNotebookCollections(ids []string) []string {
	var out []string
	for _, id := range ids {
		out = append(out, s[id]...)
	}
	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantMentions  int
		wantCleanText string
	}{
		{
			name:          "no mentions",
			text:          "Was sagt der Bundestag zur Rente?",
			wantMentions:  0,
			wantCleanText: "Was sagt der Bundestag zur Rente?",
		},
		{
			name:          "collection mention",
			text:          "@collection:de_press Was gibt es Neues?",
			wantMentions:  1,
			wantCleanText: "Was gibt es Neues?",
		},
		{
			name:          "notebook and short form",
			text:          "Vergleiche @notebook:nb-europa mit @#at_press bitte",
			wantMentions:  2,
			wantCleanText: "Vergleiche mit bitte",
		},
		{
			name:          "email address is not a mention",
			text:          "Schreib an info@example.org",
			wantMentions:  0,
			wantCleanText: "Schreib an info@example.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.text)
			assert.Len(t, res.Mentions, tt.wantMentions)
			assert.Equal(t, tt.wantCleanText, res.CleanText)
		})
	}
}

func TestCollectionIDsExpandsNotebooks(t *testing.T) {
	nb := staticNotebooks{"nb-presse": {"de_press", "at_press"}}
	res := Parse("@#at_press @notebook:nb-presse @collection:eu_parlament @notebook:ghost")

	assert.Equal(t, []string{"at_press", "de_press", "eu_parlament"}, res.CollectionIDs(nb))
	assert.Equal(t, []string{"at_press", "eu_parlament"}, res.CollectionIDs(nil))
}

func TestParseCapsMentions(t *testing.T) {
	text := ""
	for i := 0; i < MaxMentions+3; i++ {
		text += "@#c" + string(rune('a'+i)) + " "
	}
	assert.Len(t, Parse(text).Mentions, MaxMentions)
}
