package budget

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter measures and cuts text in budget units.
type Counter interface {
	Count(text string) int
	// Truncate returns the longest prefix of text that counts at most max units.
	Truncate(text string, max int) string
}

// NewCounter returns a tiktoken counter for "tiktoken" and a rune counter otherwise.
func NewCounter(kind string) Counter {
	if kind == "tiktoken" {
		return NewTiktokenCounter("cl100k_base")
	}
	return RuneCounter{}
}

type RuneCounter struct{}

func (RuneCounter) Count(text string) int {
	return utf8.RuneCountInString(text)
}

func (RuneCounter) Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}

// TiktokenCounter counts model tokens. When the encoding cannot be loaded it
// estimates four bytes per token.
type TiktokenCounter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.Mutex
}

func NewTiktokenCounter(encoding string) *TiktokenCounter {
	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return &TiktokenCounter{}
	}
	return &TiktokenCounter{encoder: tkm}
}

// Exact reports whether real token counts are used.
func (tc *TiktokenCounter) Exact() bool {
	return tc.encoder != nil
}

func (tc *TiktokenCounter) Count(text string) int {
	if tc.encoder == nil {
		return (len(text) + 3) / 4
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.encoder.Encode(text, nil, nil))
}

func (tc *TiktokenCounter) Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if tc.encoder == nil {
		limit := max * 4
		if len(text) <= limit {
			return text
		}
		cut := 0
		for i := range text {
			if i > limit {
				break
			}
			cut = i
		}
		return text[:cut]
	}

	tc.mu.Lock()
	tokens := tc.encoder.Encode(text, nil, nil)
	if len(tokens) <= max {
		tc.mu.Unlock()
		return text
	}
	prefix := tc.encoder.Decode(tokens[:max])
	tc.mu.Unlock()

	// A token boundary can split a multi-byte rune.
	for len(prefix) > 0 && !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}
