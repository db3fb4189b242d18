package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"NewsAggregator/internal/usecase"
)

// RunReport is the console summary of one run.
type RunReport struct {
	RunID     string
	Summary   usecase.Summary
	Elapsed   time.Duration
	HeapBytes uint64
}

// FormatSummary renders the run report as an aligned two-column block.
func FormatSummary(r RunReport) string {
	rows := [][2]string{
		{"Run", r.RunID},
		{"Records read", humanize.Comma(int64(r.Summary.Read))},
		{"Unique articles", humanize.Comma(int64(r.Summary.Unique))},
		{"Duplicates", humanize.Comma(int64(r.Summary.Duplicates()))},
		{"Failed batches", humanize.Comma(int64(len(r.Summary.Failed)))},
		{"Duration", r.Elapsed.Round(time.Millisecond).String()},
	}
	if r.HeapBytes > 0 {
		rows = append(rows, [2]string{"Heap in use", humanize.IBytes(r.HeapBytes)})
	}

	width := 0
	for _, row := range rows {
		if w := runewidth.StringWidth(row[0]); w > width {
			width = w
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(row[0])
		sb.WriteString(strings.Repeat(" ", width-runewidth.StringWidth(row[0])))
		sb.WriteString("  ")
		sb.WriteString(row[1])
		sb.WriteString("\n")
	}
	for _, f := range r.Summary.Failed {
		sb.WriteString(fmt.Sprintf("  - %s: %v\n", f.Location, f.Err))
	}
	return sb.String()
}
