// Package report renders the aggregated corpus into line-oriented reports.
package report

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"NewsAggregator/internal/aggregate"
	"NewsAggregator/internal/domain"
)

// Report names written besides the per-label reports.
const (
	TimelineName = "all_articles.txt"
	WordsName    = "keywords_count.txt"
	SummaryName  = "reports.txt"
)

// Fixed reports whether name is one of the reports written besides the label reports.
func Fixed(name string) bool {
	return name == TimelineName || name == WordsName || name == SummaryName
}

// SanitizeLabel turns a category or language into a filesystem-safe label.
func SanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, ",", "")
	label = strings.TrimSpace(label)
	return strings.ReplaceAll(label, " ", "_")
}

// LabelName returns the report name for a category or language key.
func LabelName(label string) string {
	return SanitizeLabel(label) + ".txt"
}

// KeyLines renders the identifiers of one label report in ascending order, each once.
// ids may merge several keys that share a report name.
func KeyLines(ids []string) []string {
	lines := append([]string(nil), ids...)
	sort.Strings(lines)
	return slices.Compact(lines)
}

// TimelineLines renders articles already sorted by domain.CompareArticles.
func TimelineLines(sorted []domain.Article) []string {
	lines := make([]string, 0, len(sorted))
	for _, a := range sorted {
		lines = append(lines, a.UUID()+" "+a.Published())
	}
	return lines
}

// MostRecent returns the article with the greatest publication time, choosing the
// smallest UUID among ties.
func MostRecent(articles []domain.Article) (domain.Article, bool) {
	if len(articles) == 0 {
		return domain.Article{}, false
	}
	best := articles[0]
	for _, a := range articles[1:] {
		if domain.CompareArticles(a, best) < 0 {
			best = a
		}
	}
	return best, true
}

// WordLines renders word counts in the order given.
func WordLines(entries []aggregate.WordCount) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s %d", e.Word, e.Count))
	}
	return lines
}

// Ranked is a key with the number of articles behind it.
type Ranked struct {
	Key   string
	Count int
}

// Top returns the entry with the highest count, choosing the smallest key among ties.
func Top(counts map[string]int) (Ranked, bool) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return Ranked{}, false
	}
	sort.Strings(keys)

	best := Ranked{Key: keys[0], Count: counts[keys[0]]}
	for _, k := range keys[1:] {
		if counts[k] > best.Count {
			best = Ranked{Key: k, Count: counts[k]}
		}
	}
	return best, true
}

// Stats feeds the summary report.
type Stats struct {
	Duplicates  int
	Unique      int
	BestAuthor  *Ranked
	TopLanguage *Ranked
	TopCategory *Ranked
	MostRecent  *domain.Article
	TopKeyword  *aggregate.WordCount
}

// SummaryLines renders the summary report; absent entries are omitted.
func SummaryLines(s Stats) []string {
	lines := []string{
		fmt.Sprintf("duplicates_found - %d", s.Duplicates),
		fmt.Sprintf("unique_articles - %d", s.Unique),
	}
	if s.BestAuthor != nil {
		lines = append(lines, fmt.Sprintf("best_author - %s %d", s.BestAuthor.Key, s.BestAuthor.Count))
	}
	if s.TopLanguage != nil {
		lines = append(lines, fmt.Sprintf("top_language - %s %d", s.TopLanguage.Key, s.TopLanguage.Count))
	}
	if s.TopCategory != nil {
		lines = append(lines, fmt.Sprintf("top_category - %s %d", SanitizeLabel(s.TopCategory.Key), s.TopCategory.Count))
	}
	if s.MostRecent != nil {
		lines = append(lines, fmt.Sprintf("most_recent_article - %s %s", s.MostRecent.Published(), s.MostRecent.URL()))
	}
	if s.TopKeyword != nil {
		lines = append(lines, fmt.Sprintf("top_keyword_en - %s %d", s.TopKeyword.Word, s.TopKeyword.Count))
	}
	return lines
}
