package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitTextShortInput(t *testing.T) {
	assert.Nil(t, SplitText("   ", 100, 10))
	assert.Equal(t, []string{"kurz"}, SplitText(" kurz ", 100, 10))
}

func TestSplitTextBounds(t *testing.T) {
	text := strings.Repeat("Bundestag beschließt Klimaschutzgesetz für Länder. ", 80)

	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "with overlap", size: 300, overlap: 50},
		{name: "no overlap", size: 250, overlap: 0},
		{name: "overlap too large", size: 200, overlap: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(text, tt.size, tt.overlap)
			assert.Greater(t, len(chunks), 1)
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), tt.size)
				assert.NotEmpty(t, c)
			}
			assert.True(t, strings.HasPrefix(text, chunks[0]))
			assert.True(t, strings.HasSuffix(strings.TrimSpace(text), chunks[len(chunks)-1]))
		})
	}
}

func TestSplitTextBreaksOnWhitespace(t *testing.T) {
	text := strings.Repeat("wort ", 100)
	for _, c := range SplitText(text, 52, 0) {
		for _, w := range strings.Fields(c) {
			assert.Equal(t, "wort", w)
		}
	}
}

func TestSplitTextWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("ä", 1000)
	chunks := SplitText(text, 300, 100)
	assert.Equal(t, 300, utf8.RuneCountInString(chunks[0]))
	assert.Len(t, chunks, 5)
}
