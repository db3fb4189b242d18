package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"NewsAggregator/internal/aggregate"
	"NewsAggregator/internal/barrier"
	"NewsAggregator/internal/dedup"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/partition"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/report"
	"NewsAggregator/internal/workqueue"
)

var (
	ErrNoWorkers     = errors.New("worker count must be at least 1")
	ErrNoDecoder     = errors.New("batch decoder is not configured")
	ErrNoSink        = errors.New("report sink is not configured")
	ErrNoConstraints = errors.New("constraints are not configured")
)

// Phase names one of the four sequential stages of a run.
type Phase string

const (
	PhaseIngest    Phase = "ingest"
	PhaseFilter    Phase = "filter"
	PhaseAggregate Phase = "aggregate"
	PhaseReport    Phase = "report"
)

// AggregatorDeps wires the driven adapters into the aggregation engine.
type AggregatorDeps struct {
	Decoder     ports.BatchDecoder
	Sink        ports.ReportSink
	Constraints ports.Constraints
	Workers     int
	// Strict aborts the run on the first batch that fails to decode.
	Strict bool
	Logger *slog.Logger
}

// Roles names the workers that produce the singleton reports.
type Roles struct {
	Timeline int
	Words    int
	Summary  int
}

// AssignRoles spreads the singleton reports over the first and last worker.
func AssignRoles(workers int) Roles {
	last := workers - 1
	if last < 0 {
		last = 0
	}
	return Roles{Timeline: 0, Words: last, Summary: 0}
}

// BatchError reports a batch that could not be decoded.
type BatchError struct {
	Location string
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("decode batch %s: %v", e.Location, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Summary is the caller-visible result of a run.
type Summary struct {
	Read   int
	Unique int
	Failed []BatchError
}

// Duplicates returns the number of records that did not make it into the unique set.
func (s Summary) Duplicates() int {
	return s.Read - s.Unique
}

// Aggregator runs the four-phase deduplication and reporting engine.
type Aggregator struct {
	decoder     ports.BatchDecoder
	sink        ports.ReportSink
	constraints ports.Constraints
	workers     int
	strict      bool
	roles       Roles
	logger      *slog.Logger
}

// NewAggregator constructs the engine; roles are fixed here for every run.
func NewAggregator(deps AggregatorDeps) *Aggregator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{
		decoder:     deps.Decoder,
		sink:        deps.Sink,
		constraints: deps.Constraints,
		workers:     deps.Workers,
		strict:      deps.Strict,
		roles:       AssignRoles(deps.Workers),
		logger:      logger,
	}
}

type runState struct {
	batches  *workqueue.Queue[string]
	staged   *workqueue.Queue[domain.Article]
	registry *dedup.Registry
	barrier  *barrier.Barrier
	read     atomic.Int64

	uniqueMu sync.Mutex
	unique   []domain.Article

	categories *aggregate.Index
	languages  *aggregate.Index
	words      *aggregate.WordCounter

	failedMu sync.Mutex
	failed   []BatchError
}

// Run processes every batch location and writes all reports through the sink.
// It returns once all workers have finished the report phase.
func (a *Aggregator) Run(ctx context.Context, locations []string) (Summary, error) {
	switch {
	case a.workers < 1:
		return Summary{}, ErrNoWorkers
	case a.decoder == nil:
		return Summary{}, ErrNoDecoder
	case a.sink == nil:
		return Summary{}, ErrNoSink
	case a.constraints == nil:
		return Summary{}, ErrNoConstraints
	}

	st := &runState{
		batches:    workqueue.New(locations...),
		staged:     workqueue.New[domain.Article](),
		registry:   dedup.NewRegistry(),
		barrier:    barrier.New(a.workers),
		categories: aggregate.NewIndex(),
		languages:  aggregate.NewIndex(),
		words:      aggregate.NewWordCounter(),
	}

	a.logger.Info("run started", "workers", st.barrier.Parties(), "batches", st.batches.Len())

	var wg sync.WaitGroup
	for id := 0; id < a.workers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := a.work(ctx, st, id); err != nil {
				st.barrier.Break(err)
			}
		}(id)
	}
	wg.Wait()

	if err := st.barrier.Err(); err != nil {
		return Summary{}, fmt.Errorf("run aborted: %w", err)
	}

	sort.Slice(st.failed, func(i, j int) bool {
		return st.failed[i].Location < st.failed[j].Location
	})
	summary := Summary{
		Read:   int(st.read.Load()),
		Unique: len(st.unique),
		Failed: st.failed,
	}

	a.logger.Info("run finished",
		"read", summary.Read,
		"unique", summary.Unique,
		"duplicates", summary.Duplicates(),
		"failed_batches", len(summary.Failed))
	return summary, nil
}

func (a *Aggregator) work(ctx context.Context, st *runState, id int) error {
	log := a.logger.With("worker", id)

	if err := a.ingest(ctx, st, log); err != nil {
		return fmt.Errorf("worker %d: %s: %w", id, PhaseIngest, err)
	}
	if err := a.await(ctx, st, id, PhaseIngest); err != nil {
		return err
	}

	a.filter(st)
	if err := a.await(ctx, st, id, PhaseFilter); err != nil {
		return err
	}

	a.aggregate(st, id)
	if err := a.await(ctx, st, id, PhaseAggregate); err != nil {
		return err
	}

	if err := a.report(ctx, st, id, log); err != nil {
		return fmt.Errorf("worker %d: %s: %w", id, PhaseReport, err)
	}
	log.Debug("worker done")
	return nil
}

func (a *Aggregator) await(ctx context.Context, st *runState, id int, done Phase) error {
	a.logger.Debug("phase complete", "worker", id, "phase", done)
	if err := st.barrier.Await(ctx); err != nil {
		return fmt.Errorf("worker %d: wait after %s: %w", id, done, err)
	}
	return nil
}

func (a *Aggregator) ingest(ctx context.Context, st *runState, log *slog.Logger) error {
	for {
		location, ok := st.batches.Take()
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		records, err := a.decoder.Decode(ctx, location)
		if err != nil {
			batchErr := &BatchError{Location: location, Err: err}
			if a.strict {
				return batchErr
			}
			log.Warn("skip batch", "location", location, "error", err)
			st.failedMu.Lock()
			st.failed = append(st.failed, *batchErr)
			st.failedMu.Unlock()
			continue
		}

		for _, rec := range records {
			article := domain.NewArticle(rec)
			firstID := st.registry.RecordIdentifier(article.UUID())
			firstTitle := st.registry.RecordTitle(article.Title())
			if firstID && firstTitle {
				st.staged.Push(article)
			}
			st.read.Add(1)
		}
		log.Debug("batch ingested", "location", location, "records", len(records))
	}
}

func (a *Aggregator) filter(st *runState) {
	for {
		article, ok := st.staged.Take()
		if !ok {
			return
		}
		if !st.registry.Unique(article) {
			continue
		}
		st.uniqueMu.Lock()
		st.unique = append(st.unique, article)
		st.uniqueMu.Unlock()
	}
}

// aggregate reads st.unique without locking: it is only appended to during the
// filter phase, which the preceding barrier has closed.
func (a *Aggregator) aggregate(st *runState, id int) {
	tokenizer := aggregate.NewTokenizer(a.constraints.ExcludedWord)
	start, end := partition.Range(len(st.unique), a.workers, id)

	for _, article := range st.unique[start:end] {
		for _, category := range article.Categories() {
			if a.constraints.InterestCategory(category) {
				st.categories.Add(category, article.UUID())
			}
		}

		language := article.Language()
		if a.constraints.PermittedLanguage(language) {
			st.languages.Add(language, article.UUID())
		}
		if language == domain.EnglishLanguage {
			st.words.AddDistinct(tokenizer.Distinct(article.Text()))
		}
	}
}

func (a *Aggregator) report(ctx context.Context, st *runState, id int, log *slog.Logger) error {
	labels := labelReports(st.categories, st.languages)
	if id == a.roles.Summary {
		for _, name := range labels.shadowed {
			log.Warn("label report shadowed by a fixed report", "report", name)
		}
	}
	for _, name := range partition.Keys(labels.names, a.workers, id) {
		if err := a.sink.WriteReport(ctx, name, report.KeyLines(labels.ids(name))); err != nil {
			return fmt.Errorf("write report %s: %w", name, err)
		}
	}

	if id == a.roles.Timeline {
		lines := report.TimelineLines(domain.SortArticles(st.unique))
		if err := a.sink.WriteReport(ctx, report.TimelineName, lines); err != nil {
			return fmt.Errorf("write timeline: %w", err)
		}
		log.Debug("timeline written", "articles", len(lines))
	}

	if id == a.roles.Words {
		if err := a.sink.WriteReport(ctx, report.WordsName, report.WordLines(st.words.Entries())); err != nil {
			return fmt.Errorf("write word frequencies: %w", err)
		}
	}

	if id == a.roles.Summary {
		if err := a.sink.WriteReport(ctx, report.SummaryName, report.SummaryLines(a.stats(st))); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

func (a *Aggregator) stats(st *runState) report.Stats {
	stats := report.Stats{
		Unique:     len(st.unique),
		Duplicates: int(st.read.Load()) - len(st.unique),
	}

	authors := make(map[string]int)
	for _, article := range st.unique {
		if article.Author() != "" {
			authors[article.Author()]++
		}
	}
	if top, ok := report.Top(authors); ok {
		stats.BestAuthor = &top
	}
	if top, ok := report.Top(labelCounts(st.languages)); ok {
		stats.TopLanguage = &top
	}
	if top, ok := report.Top(labelCounts(st.categories)); ok {
		stats.TopCategory = &top
	}
	if recent, ok := report.MostRecent(st.unique); ok {
		stats.MostRecent = &recent
	}
	if entries := st.words.Entries(); len(entries) > 0 {
		stats.TopKeyword = &entries[0]
	}
	return stats
}

func labelCounts(index *aggregate.Index) map[string]int {
	counts := make(map[string]int)
	for _, key := range index.Keys() {
		counts[key] = index.Len(key)
	}
	return counts
}

type labelRef struct {
	index *aggregate.Index
	key   string
}

// labelSet maps each label report name to every key, across all indexes, that
// sanitizes to it. Distinct keys such as "Arts, Culture" and "Arts Culture" share
// one report, so the names rather than the keys are partitioned over workers.
// Names equal to a fixed report are left to the role worker that owns them.
type labelSet struct {
	names    []string
	refs     map[string][]labelRef
	shadowed []string
}

func labelReports(indexes ...*aggregate.Index) labelSet {
	set := labelSet{refs: make(map[string][]labelRef)}
	for _, index := range indexes {
		for _, key := range index.Keys() {
			name := report.LabelName(key)
			if report.Fixed(name) {
				if !slices.Contains(set.shadowed, name) {
					set.shadowed = append(set.shadowed, name)
				}
				continue
			}
			if _, ok := set.refs[name]; !ok {
				set.names = append(set.names, name)
			}
			set.refs[name] = append(set.refs[name], labelRef{index: index, key: key})
		}
	}
	sort.Strings(set.names)
	return set
}

func (s labelSet) ids(name string) []string {
	var ids []string
	for _, ref := range s.refs[name] {
		ids = append(ids, ref.index.Sorted(ref.key)...)
	}
	return ids
}
