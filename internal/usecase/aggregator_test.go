package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"

	"NewsAggregator/internal/barrier"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/report"
)

type fakeDecoder struct {
	batches map[string][]domain.Record
	fail    map[string]error
}

func (f fakeDecoder) Decode(_ context.Context, location string) ([]domain.Record, error) {
	if err, ok := f.fail[location]; ok {
		return nil, err
	}
	records, ok := f.batches[location]
	if !ok {
		return nil, fmt.Errorf("unknown batch %s", location)
	}
	return records, nil
}

type memorySink struct {
	mu      sync.Mutex
	reports map[string][]string
	writes  map[string]int
}

func newMemorySink() *memorySink {
	return &memorySink{reports: map[string][]string{}, writes: map[string]int{}}
}

func (m *memorySink) WriteReport(_ context.Context, name string, lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[name] = append([]string(nil), lines...)
	m.writes[name]++
	return nil
}

type sets struct {
	languages  map[string]bool
	categories map[string]bool
	excluded   map[string]bool
}

func (s sets) PermittedLanguage(l string) bool { return s.languages[l] }
func (s sets) InterestCategory(c string) bool  { return s.categories[c] }
func (s sets) ExcludedWord(w string) bool      { return s.excluded[w] }

func defaultSets() sets {
	return sets{
		languages:  map[string]bool{"english": true, "german": true},
		categories: map[string]bool{"Sports": true, "Arts, Culture": true},
		excluded:   map[string]bool{"the": true, "a": true},
	}
}

func run(t *testing.T, workers int, dec fakeDecoder, locations []string) (Summary, *memorySink) {
	t.Helper()

	sink := newMemorySink()
	agg := NewAggregator(AggregatorDeps{
		Decoder:     dec,
		Sink:        sink,
		Constraints: defaultSets(),
		Workers:     workers,
	})
	summary, err := agg.Run(context.Background(), locations)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for name, n := range sink.writes {
		if n != 1 {
			t.Fatalf("report %s written %d times", name, n)
		}
	}
	return summary, sink
}

func TestRepeatedArticleAcrossBatches(t *testing.T) {
	t.Parallel()

	rec := domain.Record{UUID: "A1", Title: "T1", Language: "english", Text: "hello"}
	dec := fakeDecoder{batches: map[string][]domain.Record{
		"b1": {rec},
		"b2": {rec},
	}}

	for _, workers := range []int{1, 2, 4} {
		summary, sink := run(t, workers, dec, []string{"b1", "b2"})
		if summary.Read != 2 || summary.Unique != 0 || summary.Duplicates() != 2 {
			t.Fatalf("workers=%d: unexpected summary %+v", workers, summary)
		}
		if got := sink.reports[report.TimelineName]; len(got) != 0 {
			t.Fatalf("workers=%d: expected empty timeline, got %v", workers, got)
		}
	}
}

func TestSingleEnglishArticle(t *testing.T) {
	t.Parallel()

	dec := fakeDecoder{batches: map[string][]domain.Record{
		"b1": {{
			UUID:       "A2",
			Title:      "T2",
			Author:     "Jane",
			URL:        "https://example.org/a2",
			Published:  "2024-02-01T10:00:00",
			Language:   "english",
			Text:       "The match, the crowd and a Match!",
			Categories: []string{"Sports", "Sports", "Weather"},
		}},
	}}

	summary, sink := run(t, 3, dec, []string{"b1"})
	if summary.Read != 1 || summary.Unique != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	wantWords := []string{"and 1", "crowd 1", "match 1"}
	if got := sink.reports[report.WordsName]; !reflect.DeepEqual(got, wantWords) {
		t.Fatalf("words = %v, want %v", got, wantWords)
	}
	if got := sink.reports["Sports.txt"]; !reflect.DeepEqual(got, []string{"A2"}) {
		t.Fatalf("Sports report = %v", got)
	}
	if _, ok := sink.reports["Weather.txt"]; ok {
		t.Fatalf("category outside the interest set must not be reported")
	}
	if got := sink.reports["english.txt"]; !reflect.DeepEqual(got, []string{"A2"}) {
		t.Fatalf("english report = %v", got)
	}
	if got := sink.reports[report.TimelineName]; !reflect.DeepEqual(got, []string{"A2 2024-02-01T10:00:00"}) {
		t.Fatalf("timeline = %v", got)
	}

	wantSummary := []string{
		"duplicates_found - 0",
		"unique_articles - 1",
		"best_author - Jane 1",
		"top_language - english 1",
		"top_category - Sports 1",
		"most_recent_article - 2024-02-01T10:00:00 https://example.org/a2",
		"top_keyword_en - and 1",
	}
	if got := sink.reports[report.SummaryName]; !reflect.DeepEqual(got, wantSummary) {
		t.Fatalf("summary = %v, want %v", got, wantSummary)
	}
}

func TestTitleCollisionExcludesBoth(t *testing.T) {
	t.Parallel()

	dec := fakeDecoder{batches: map[string][]domain.Record{
		"b1": {{UUID: "X", Title: "Shared"}, {UUID: "K", Title: "Kept"}},
		"b2": {{UUID: "Y", Title: "Shared"}},
		"b3": {{UUID: "K2", Title: "Other"}, {UUID: "K2", Title: "Different"}},
	}}

	summary, sink := run(t, 2, dec, []string{"b1", "b2", "b3"})
	if summary.Read != 5 || summary.Unique != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := sink.reports[report.TimelineName]; len(got) != 1 || got[0] != "K " {
		t.Fatalf("timeline = %q", got)
	}
}

func TestLanguageMembership(t *testing.T) {
	t.Parallel()

	dec := fakeDecoder{batches: map[string][]domain.Record{
		"b1": {
			{UUID: "g1", Title: "g1", Language: "german", Text: "the words here"},
			{UUID: "f1", Title: "f1", Language: "french"},
			{UUID: "g0", Title: "g0", Language: "german"},
		},
	}}

	_, sink := run(t, 2, dec, []string{"b1"})
	if got := sink.reports["german.txt"]; !reflect.DeepEqual(got, []string{"g0", "g1"}) {
		t.Fatalf("german report = %v", got)
	}
	if _, ok := sink.reports["french.txt"]; ok {
		t.Fatalf("language outside the permitted set must not be reported")
	}
	if got := sink.reports[report.WordsName]; len(got) != 0 {
		t.Fatalf("non-english articles must not feed word counts, got %v", got)
	}
}

func corpus(batches, perBatch int) (fakeDecoder, []string) {
	dec := fakeDecoder{batches: map[string][]domain.Record{}}
	var locations []string
	for b := 0; b < batches; b++ {
		loc := fmt.Sprintf("batch-%02d", b)
		locations = append(locations, loc)
		for i := 0; i < perBatch; i++ {
			n := b*perBatch + i
			rec := domain.Record{
				UUID:       fmt.Sprintf("id-%03d", n),
				Title:      fmt.Sprintf("title-%03d", n),
				Author:     fmt.Sprintf("author-%d", n%5),
				Published:  fmt.Sprintf("2024-01-%02dT00:00:00", 1+n%9),
				Language:   []string{"english", "german", "english", "spanish"}[n%4],
				Text:       []string{"alpha beta", "beta gamma gamma", "the delta", "alpha"}[n%4],
				Categories: []string{"Sports", "Arts, Culture", "Other"}[n%3 : n%3+1],
			}
			if n%7 == 0 {
				rec.UUID = "dup-id"
			}
			if n%11 == 0 {
				rec.Title = "dup-title"
			}
			dec.batches[loc] = append(dec.batches[loc], rec)
		}
	}
	return dec, locations
}

func TestOutputIndependentOfWorkerCount(t *testing.T) {
	t.Parallel()

	dec, locations := corpus(6, 17)
	baseSummary, base := run(t, 1, dec, locations)

	for _, workers := range []int{2, 3, 5, 8, 200} {
		summary, sink := run(t, workers, dec, locations)
		if summary.Read != baseSummary.Read || summary.Unique != baseSummary.Unique {
			t.Fatalf("workers=%d: summary %+v differs from %+v", workers, summary, baseSummary)
		}
		if !reflect.DeepEqual(sink.reports, base.reports) {
			t.Fatalf("workers=%d: reports differ from single-worker run", workers)
		}
	}
}

func TestUniqueSetDefinition(t *testing.T) {
	t.Parallel()

	dec, locations := corpus(4, 25)

	ids := map[string]int{}
	titles := map[string]int{}
	for _, recs := range dec.batches {
		for _, r := range recs {
			ids[r.UUID]++
			titles[r.Title]++
		}
	}
	var want []string
	for _, recs := range dec.batches {
		for _, r := range recs {
			if ids[r.UUID] == 1 && titles[r.Title] == 1 {
				want = append(want, r.UUID)
			}
		}
	}
	sort.Strings(want)

	summary, sink := run(t, 4, dec, locations)
	if summary.Unique != len(want) {
		t.Fatalf("expected %d unique, got %d", len(want), summary.Unique)
	}

	var got []string
	for _, line := range sink.reports[report.TimelineName] {
		var id, published string
		if _, err := fmt.Sscanf(line, "%s %s", &id, &published); err != nil {
			t.Fatalf("bad timeline line %q: %v", line, err)
		}
		got = append(got, id)
	}
	sort.Strings(got)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unique ids = %v, want %v", got, want)
	}
}

func TestDecodeFailureCollected(t *testing.T) {
	t.Parallel()

	boom := errors.New("truncated json")
	dec := fakeDecoder{
		batches: map[string][]domain.Record{"ok": {{UUID: "a", Title: "a"}}},
		fail:    map[string]error{"bad": boom},
	}

	summary, _ := run(t, 2, dec, []string{"bad", "ok"})
	if summary.Read != 1 || summary.Unique != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.Failed) != 1 || summary.Failed[0].Location != "bad" || !errors.Is(&summary.Failed[0], boom) {
		t.Fatalf("unexpected failures %+v", summary.Failed)
	}
}

func TestStrictDecodeFailureAbortsRun(t *testing.T) {
	t.Parallel()

	boom := errors.New("truncated json")
	dec := fakeDecoder{
		batches: map[string][]domain.Record{"ok": {{UUID: "a", Title: "a"}}},
		fail:    map[string]error{"bad": boom},
	}

	agg := NewAggregator(AggregatorDeps{
		Decoder:     dec,
		Sink:        newMemorySink(),
		Constraints: defaultSets(),
		Workers:     3,
		Strict:      true,
	})
	_, err := agg.Run(context.Background(), []string{"ok", "bad"})
	if err == nil {
		t.Fatalf("expected error")
	}

	var batchErr *BatchError
	if !errors.As(err, &batchErr) || batchErr.Location != "bad" {
		t.Fatalf("expected BatchError for bad, got %v", err)
	}
	if !errors.Is(err, boom) || !errors.Is(err, barrier.ErrBroken) {
		t.Fatalf("unexpected error chain: %v", err)
	}
}

func TestCancelledRun(t *testing.T) {
	t.Parallel()

	dec, locations := corpus(2, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewAggregator(AggregatorDeps{
		Decoder:     dec,
		Sink:        newMemorySink(),
		Constraints: defaultSets(),
		Workers:     2,
	})
	if _, err := agg.Run(ctx, locations); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunValidatesDeps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		deps AggregatorDeps
		want error
	}{
		{"workers", AggregatorDeps{Decoder: fakeDecoder{}, Sink: newMemorySink(), Constraints: defaultSets()}, ErrNoWorkers},
		{"decoder", AggregatorDeps{Workers: 1, Sink: newMemorySink(), Constraints: defaultSets()}, ErrNoDecoder},
		{"sink", AggregatorDeps{Workers: 1, Decoder: fakeDecoder{}, Constraints: defaultSets()}, ErrNoSink},
		{"constraints", AggregatorDeps{Workers: 1, Decoder: fakeDecoder{}, Sink: newMemorySink()}, ErrNoConstraints},
	}
	for _, tc := range cases {
		if _, err := NewAggregator(tc.deps).Run(context.Background(), nil); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestAssignRoles(t *testing.T) {
	t.Parallel()

	if r := AssignRoles(1); r != (Roles{Timeline: 0, Words: 0, Summary: 0}) {
		t.Fatalf("unexpected roles for one worker: %+v", r)
	}
	if r := AssignRoles(4); r.Timeline != 0 || r.Words != 3 {
		t.Fatalf("unexpected roles for four workers: %+v", r)
	}
}

func TestCollidingLabelsShareOneReport(t *testing.T) {
	t.Parallel()

	constraints := sets{
		languages:  map[string]bool{"english": true},
		categories: map[string]bool{"Arts, Culture": true, "Arts Culture": true, "english": true},
	}
	dec := fakeDecoder{batches: map[string][]domain.Record{
		"b1": {
			{UUID: "u2", Title: "t2", Language: "german", Categories: []string{"Arts Culture"}},
			{UUID: "u1", Title: "t1", Language: "german", Categories: []string{"Arts, Culture"}},
			{UUID: "u3", Title: "t3", Language: "english", Categories: []string{"english"}},
			{UUID: "u4", Title: "t4", Language: "english"},
		},
	}}

	for _, workers := range []int{1, 2, 3, 4} {
		sink := newMemorySink()
		agg := NewAggregator(AggregatorDeps{
			Decoder:     dec,
			Sink:        sink,
			Constraints: constraints,
			Workers:     workers,
		})
		if _, err := agg.Run(context.Background(), []string{"b1"}); err != nil {
			t.Fatalf("workers=%d: Run returned error: %v", workers, err)
		}

		for name, n := range sink.writes {
			if n != 1 {
				t.Fatalf("workers=%d: report %s written %d times", workers, name, n)
			}
		}
		if got := sink.reports["Arts_Culture.txt"]; !reflect.DeepEqual(got, []string{"u1", "u2"}) {
			t.Fatalf("workers=%d: Arts_Culture.txt = %v", workers, got)
		}
		if got := sink.reports["english.txt"]; !reflect.DeepEqual(got, []string{"u3", "u4"}) {
			t.Fatalf("workers=%d: english.txt = %v", workers, got)
		}
	}
}

func TestLabelMatchingFixedReportIsSkipped(t *testing.T) {
	t.Parallel()

	constraints := sets{
		languages:  map[string]bool{"english": true},
		categories: map[string]bool{"all articles": true},
	}
	dec := fakeDecoder{batches: map[string][]domain.Record{
		"b1": {{UUID: "u1", Title: "t1", Published: "2024-01-01T00:00:00", Language: "english", Categories: []string{"all articles"}}},
	}}

	for _, workers := range []int{1, 3} {
		sink := newMemorySink()
		agg := NewAggregator(AggregatorDeps{Decoder: dec, Sink: sink, Constraints: constraints, Workers: workers})
		if _, err := agg.Run(context.Background(), []string{"b1"}); err != nil {
			t.Fatalf("workers=%d: Run returned error: %v", workers, err)
		}
		if n := sink.writes[report.TimelineName]; n != 1 {
			t.Fatalf("workers=%d: timeline written %d times", workers, n)
		}
		if got := sink.reports[report.TimelineName]; !reflect.DeepEqual(got, []string{"u1 2024-01-01T00:00:00"}) {
			t.Fatalf("workers=%d: timeline = %v", workers, got)
		}
	}
}
