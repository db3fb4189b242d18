package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"NewsAggregator/internal/batch"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// FileSource implements BatchDecoder for batches stored as local files.
type FileSource struct {
	registry  *batch.Registry
	stripHTML bool
	logger    *slog.Logger
}

var _ ports.BatchDecoder = (*FileSource)(nil)

// NewFileSource wires the format registry; stripHTML reduces HTML bodies to text.
func NewFileSource(reg *batch.Registry, stripHTML bool, log *slog.Logger) *FileSource {
	return &FileSource{
		registry:  reg,
		stripHTML: stripHTML,
		logger:    log,
	}
}

// NewDefaultRegistry registers the JSON array and JSON lines formats, falling back
// to JSON arrays for unknown extensions.
func NewDefaultRegistry() *batch.Registry {
	reg := batch.NewRegistry(JSONArray{}.Name())
	reg.Register(JSONArray{})
	reg.Register(JSONLines{})
	return reg
}

// Decode opens the batch file and decodes it with the format matching its extension.
func (s *FileSource) Decode(ctx context.Context, location string) ([]domain.Record, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("batch format registry is not configured")
	}

	format, err := s.registry.ForLocation(location)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()

	records, err := format.Decode(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s batch: %w", format.Name(), err)
	}

	if s.stripHTML {
		for i := range records {
			text, err := StripHTML(records[i].Text)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", records[i].UUID, err)
			}
			records[i].Text = text
		}
	}

	s.debug("batch decoded", "location", location, "format", format.Name(), "records", len(records))
	return records, nil
}

func (s *FileSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
