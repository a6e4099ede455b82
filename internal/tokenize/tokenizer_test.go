package tokenize

import (
	"reflect"
	"testing"
)

func TestTokenizer_Tokens(t *testing.T) {
	t.Parallel()

	tok := New(Config{})

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "stop words and short tokens removed",
			input:    "The virus and the pandemic",
			expected: []string{"virus", "pandemic"},
		},
		{
			name:     "lowercases input",
			input:    "CORONAVIRUS Transmission",
			expected: []string{"coronavirus", "transmission"},
		},
		{
			name:     "digits and punctuation split letter runs",
			input:    "covid-19 spread2020fast",
			expected: []string{"covid", "spread", "fast"},
		},
		{
			name:     "length two tokens dropped",
			input:    "mRNA in US labs",
			expected: []string{"mrna", "labs"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "only stop words",
			input:    "the and of in to",
			expected: nil,
		},
		{
			name:     "only punctuation",
			input:    "... --- !!!",
			expected: nil,
		},
		{
			name:     "order of appearance preserved",
			input:    "pandemic response pandemic recovery",
			expected: []string{"pandemic", "response", "pandemic", "recovery"},
		},
		{
			name:     "non ascii letters are not tokens",
			input:    "müller 病毒 vaccine",
			expected: []string{"ller", "vaccine"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tok.Tokens(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokens(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTokenizer_Keep(t *testing.T) {
	t.Parallel()

	tok := New(Config{})

	tests := []struct {
		token string
		keep  bool
	}{
		{"virus", true},
		{"the", false},
		{"was", false},
		{"ab", false},
		{"rna", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()
			if got := tok.Keep(tt.token); got != tt.keep {
				t.Errorf("Keep(%q) = %v, want %v", tt.token, got, tt.keep)
			}
		})
	}
}

func TestTokenizer_CustomConfig(t *testing.T) {
	t.Parallel()

	tok := New(Config{
		StopWords:      map[string]struct{}{"virus": {}},
		MinTokenLength: 5,
	})

	got := tok.Tokens("The virus and the pandemic")
	expected := []string{"pandemic"}

	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Tokens() = %v, want %v", got, expected)
	}
}

func TestDefaultStopWords_Copy(t *testing.T) {
	t.Parallel()

	words := DefaultStopWords()
	if _, ok := words["the"]; !ok {
		t.Fatalf("DefaultStopWords() missing %q", "the")
	}
	if len(words) != 20 {
		t.Errorf("DefaultStopWords() has %d entries, want 20", len(words))
	}

	// Mutating the copy must not affect the tokenizer defaults.
	delete(words, "the")
	tok := New(Config{})
	if tok.Keep("the") {
		t.Error("Keep(\"the\") = true after mutating a DefaultStopWords copy")
	}
}
