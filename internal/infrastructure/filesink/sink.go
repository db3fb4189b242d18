package filesink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"NewsAggregator/internal/ports"
)

// Sink writes every report as a text file under a base directory.
type Sink struct {
	dir string
}

var _ ports.ReportSink = (*Sink)(nil)

// New creates the output directory if needed.
func New(dir string) (*Sink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Sink{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Sink) Dir() string {
	return s.dir
}

// WriteReport creates or truncates <dir>/<name> and writes one line per entry.
// Path separators in name are replaced so the report stays inside dir.
func (s *Sink) WriteReport(ctx context.Context, name string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid report name %q", name)
	}
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			_ = f.Close()
			return fmt.Errorf("write report %s: %w", name, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			_ = f.Close()
			return fmt.Errorf("write report %s: %w", name, err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush report %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report %s: %w", name, err)
	}
	return nil
}
