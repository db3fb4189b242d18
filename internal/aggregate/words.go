package aggregate

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WordCount is one entry of the word-frequency map.
type WordCount struct {
	Word  string
	Count int
}

// WordCounter counts, per token, the number of articles containing it.
type WordCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewWordCounter builds an empty counter.
func NewWordCounter() *WordCounter {
	return &WordCounter{counts: make(map[string]int)}
}

// AddDistinct increments every token by one. Callers pass each article's distinct
// tokens, so the resulting count is a document frequency.
func (w *WordCounter) AddDistinct(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	w.mu.Lock()
	for _, t := range tokens {
		w.counts[t]++
	}
	w.mu.Unlock()
}

// Entries returns all counts ordered by count descending, then word ascending.
func (w *WordCounter) Entries() []WordCount {
	w.mu.Lock()
	entries := make([]WordCount, 0, len(w.counts))
	for word, n := range w.counts {
		entries = append(entries, WordCount{Word: word, Count: n})
	}
	w.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Word < entries[j].Word
	})
	return entries
}

// Tokenizer turns an article body into its distinct, non-excluded words.
// A Tokenizer is not safe for concurrent use; give each worker its own.
type Tokenizer struct {
	lower    cases.Caser
	excluded func(string) bool
}

// NewTokenizer builds a tokenizer that drops every word for which excluded returns true.
func NewTokenizer(excluded func(string) bool) *Tokenizer {
	if excluded == nil {
		excluded = func(string) bool { return false }
	}
	return &Tokenizer{
		lower:    cases.Lower(language.Und),
		excluded: excluded,
	}
}

// Distinct lower-cases text, splits on whitespace, strips non-letters and returns
// each surviving word once, in first-seen order.
func (t *Tokenizer) Distinct(text string) []string {
	fields := strings.Fields(t.lower.String(text))
	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))

	for _, f := range fields {
		word := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) {
				return r
			}
			return -1
		}, f)
		if word == "" || t.excluded(word) {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return words
}
