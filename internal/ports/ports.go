package ports

import (
	"context"

	"NewsAggregator/internal/domain"
)

// BatchDecoder turns one batch location into its article records.
type BatchDecoder interface {
	Decode(ctx context.Context, location string) ([]domain.Record, error)
}

// ReportSink persists a named report with create-or-truncate semantics.
type ReportSink interface {
	WriteReport(ctx context.Context, name string, lines []string) error
}

// Constraints exposes the read-only membership sets of a run.
type Constraints interface {
	PermittedLanguage(language string) bool
	InterestCategory(category string) bool
	ExcludedWord(word string) bool
}
