package domain

import (
	"sort"
	"strings"
)

// EnglishLanguage is the language tag whose bodies feed the word-frequency report.
const EnglishLanguage = "english"

// Record is a decoded batch entry as handed over by a batch decoder.
type Record struct {
	UUID       string   `json:"uuid"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	URL        string   `json:"url"`
	Text       string   `json:"text"`
	Published  string   `json:"published"`
	Language   string   `json:"language"`
	Categories []string `json:"categories"`
}

// Article is a core entity describing one decoded news article.
// It is never mutated after NewArticle returns, so workers share it without locking.
type Article struct {
	uuid       string
	title      string
	author     string
	url        string
	text       string
	published  string
	language   string
	categories []string
}

// NewArticle builds an Article from a decoded record, collapsing duplicate categories.
func NewArticle(rec Record) Article {
	seen := make(map[string]struct{}, len(rec.Categories))
	categories := make([]string, 0, len(rec.Categories))
	for _, c := range rec.Categories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}

	return Article{
		uuid:       rec.UUID,
		title:      rec.Title,
		author:     rec.Author,
		url:        rec.URL,
		text:       rec.Text,
		published:  rec.Published,
		language:   rec.Language,
		categories: categories,
	}
}

func (a Article) UUID() string      { return a.uuid }
func (a Article) Title() string     { return a.title }
func (a Article) Author() string    { return a.author }
func (a Article) URL() string       { return a.url }
func (a Article) Text() string      { return a.text }
func (a Article) Published() string { return a.published }
func (a Article) Language() string  { return a.language }

// Categories returns a copy of the article's category set.
func (a Article) Categories() []string {
	out := make([]string, len(a.categories))
	copy(out, a.categories)
	return out
}

// CompareArticles orders by publication time descending, then by UUID ascending.
func CompareArticles(a, b Article) int {
	if c := strings.Compare(b.published, a.published); c != 0 {
		return c
	}
	return strings.Compare(a.uuid, b.uuid)
}

// SortArticles returns a copy of articles sorted by CompareArticles.
func SortArticles(articles []Article) []Article {
	sorted := make([]Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareArticles(sorted[i], sorted[j]) < 0
	})
	return sorted
}
