package parser

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"NewsAggregator/internal/batch"
	"NewsAggregator/internal/domain"
)

const maxLineSize = 16 * 1024 * 1024

// JSONArray decodes a batch stored as one JSON array of article objects.
type JSONArray struct{}

var _ batch.Format = JSONArray{}

// Name identifies the format inside the registry.
func (JSONArray) Name() string {
	return "json"
}

// Extensions lists the file extensions mapped to this format.
func (JSONArray) Extensions() []string {
	return []string{".json"}
}

// Decode streams the array element by element.
func (JSONArray) Decode(ctx context.Context, r io.Reader) ([]domain.Record, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read array start: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected JSON array, got %v", tok)
	}

	var records []domain.Record
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec domain.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		if err := validateRecord(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read array end: %w", err)
	}
	return records, nil
}

// JSONLines decodes a batch holding one JSON object per line.
type JSONLines struct{}

var _ batch.Format = JSONLines{}

// Name identifies the format inside the registry.
func (JSONLines) Name() string {
	return "jsonl"
}

// Extensions lists the file extensions mapped to this format.
func (JSONLines) Extensions() []string {
	return []string{".jsonl", ".ndjson"}
}

// Decode reads every non-blank line as one record.
func (JSONLines) Decode(ctx context.Context, r io.Reader) ([]domain.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		records []domain.Record
		line    int
	)
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rec domain.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := validateRecord(rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}
	return records, nil
}

func validateRecord(rec domain.Record) error {
	if rec.UUID == "" {
		return fmt.Errorf("missing uuid")
	}
	return nil
}
