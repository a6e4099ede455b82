// Package tokenize extracts analysis tokens from free-text fields.
//
// The tokenizer lower-cases its input, takes maximal runs of ASCII letters
// as candidate tokens, and drops short tokens and stop words. It is a
// stateless transform: configuration is fixed at construction and shared
// use is safe.
package tokenize

import (
	"regexp"
	"strings"
)

// defaultMinTokenLength drops tokens of length <= 2.
const defaultMinTokenLength = 3

// letterRunRegex matches maximal runs of ASCII letters.
var letterRunRegex = regexp.MustCompile(`[a-zA-Z]+`)

// defaultStopWords is the fixed set of high-frequency words excluded from
// word analysis.
var defaultStopWords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "in": {}, "to": {},
	"a": {}, "for": {}, "on": {}, "with": {}, "by": {},
	"an": {}, "as": {}, "at": {}, "from": {}, "is": {},
	"that": {}, "this": {}, "are": {}, "be": {}, "was": {},
}

// Config holds tokenizer construction parameters. Zero values select the
// defaults, so Config{} is a valid configuration.
type Config struct {
	// StopWords overrides the default stop-word set when non-nil.
	StopWords map[string]struct{}

	// MinTokenLength overrides the minimum kept token length when positive.
	MinTokenLength int
}

// Tokenizer splits free text into kept analysis tokens.
type Tokenizer struct {
	stopWords map[string]struct{}
	minLength int
}

// New creates a Tokenizer from the given configuration.
func New(cfg Config) *Tokenizer {
	stop := cfg.StopWords
	if stop == nil {
		stop = defaultStopWords
	}

	minLength := cfg.MinTokenLength
	if minLength <= 0 {
		minLength = defaultMinTokenLength
	}

	return &Tokenizer{
		stopWords: stop,
		minLength: minLength,
	}
}

// DefaultStopWords returns a copy of the built-in stop-word set.
func DefaultStopWords() map[string]struct{} {
	out := make(map[string]struct{}, len(defaultStopWords))
	for w := range defaultStopWords {
		out[w] = struct{}{}
	}
	return out
}

// Tokens returns the kept tokens of text in order of appearance: maximal
// ASCII-letter runs of the lower-cased input, minus stop words and tokens
// shorter than the configured minimum.
func (t *Tokenizer) Tokens(text string) []string {
	if text == "" {
		return nil
	}

	runs := letterRunRegex.FindAllString(strings.ToLower(text), -1)
	if len(runs) == 0 {
		return nil
	}

	tokens := runs[:0]
	for _, tok := range runs {
		if !t.Keep(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}

	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Keep reports whether a single already-lowercased token survives the
// length and stop-word filters.
func (t *Tokenizer) Keep(token string) bool {
	if len(token) < t.minLength {
		return false
	}
	_, stopped := t.stopWords[token]
	return !stopped
}
