package report

import (
	"fmt"
	"io"
	"time"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/nao1215/jobharvest/internal/model"
)

// Summary is the data shown at the end of a crawl and by the status command.
type Summary struct {
	// RunID identifies the run.
	RunID string `json:"run_id,omitempty"`

	// Reason is why the run stopped. Empty when read back from state.
	Reason string `json:"reason,omitempty"`

	// Wanted is the target number of records. Zero when unknown.
	Wanted int64 `json:"wanted,omitempty"`

	// ResumedFrom is the saved count the run started from.
	ResumedFrom int64 `json:"resumed_from"`

	// Saved is the saved count at the end of the run.
	Saved int64 `json:"saved"`

	// CompletedAt is when the run ended.
	CompletedAt time.Time `json:"completed_at"`

	// Stats are the final run statistics.
	Stats model.StatsSnapshot `json:"stats"`

	// Dataset holds the stored record counts when known.
	Dataset *DatasetCounts `json:"dataset,omitempty"`
}

// DatasetCounts is the number of stored records per kind.
type DatasetCounts struct {
	Jobs  int64 `json:"jobs"`
	Stubs int64 `json:"stubs"`
}

// FromState builds a Summary from persisted state.
func FromState(st model.RunState) *Summary {
	return &Summary{
		RunID:       st.RunID,
		Saved:       st.Saved,
		CompletedAt: st.CompletedAt,
		Stats:       st.Stats,
	}
}

// Writer defines the interface for summary output.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(s *Summary) (int, error)
}

// NewWriter returns the writer for a report format name.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case config.ReportText:
		return NewSimpleWriter(output), nil
	case config.ReportJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case config.ReportMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownReportFormat, format)
	}
}

// MultiWriter writes to multiple Writers, such as the terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(s *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(s)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// rows returns the label/value pairs shared by the text and Markdown writers.
func rows(s *Summary) [][2]string {
	st := s.Stats
	saved := fmt.Sprintf("%d", s.Saved)
	if s.Wanted > 0 && s.Wanted < config.UnlimitedResults {
		saved = fmt.Sprintf("%d / %d", s.Saved, s.Wanted)
	}

	out := [][2]string{
		{"Run ID", orDash(s.RunID)},
	}
	if s.Reason != "" {
		out = append(out, [2]string{"Stopped", s.Reason})
	}
	out = append(out,
		[2]string{"Completed", formatTime(s.CompletedAt)},
		[2]string{"Duration", st.Duration.Round(time.Second).String()},
		[2]string{"Items saved", saved},
	)
	if s.ResumedFrom > 0 {
		out = append(out, [2]string{"Resumed from", fmt.Sprintf("%d", s.ResumedFrom)})
	}
	out = append(out,
		[2]string{"List pages", fmt.Sprintf("%d", st.ListPagesProcessed)},
		[2]string{"Detail pages", fmt.Sprintf("%d", st.DetailPages)},
		[2]string{"Requests", fmt.Sprintf("%d", st.Requests)},
		[2]string{"Errors", fmt.Sprintf("%d", st.Errors)},
		[2]string{"Blocked requests", fmt.Sprintf("%d", st.BlockedRequests)},
		[2]string{"Avg request time", st.AverageRequestTime.Round(time.Millisecond).String()},
		[2]string{"Items per minute", fmt.Sprintf("%.2f", st.ItemsPerMinute)},
		[2]string{"Efficiency", fmt.Sprintf("%.1f%%", st.Efficiency)},
	)
	if s.Dataset != nil {
		out = append(out,
			[2]string{"Stored postings", fmt.Sprintf("%d", s.Dataset.Jobs)},
			[2]string{"Stored URL stubs", fmt.Sprintf("%d", s.Dataset.Stubs)},
		)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
