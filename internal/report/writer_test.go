package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/nao1215/jobharvest/internal/model"
)

func testSummary() *Summary {
	return &Summary{
		RunID:       "run-1",
		Reason:      "quota_met",
		Wanted:      10,
		ResumedFrom: 4,
		Saved:       10,
		CompletedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Stats: model.StatsSnapshot{
			Duration:           90 * time.Second,
			ListPagesProcessed: 2,
			DetailPages:        6,
			ItemsSaved:         6,
			Errors:             1,
			BlockedRequests:    1,
			Requests:           9,
			AverageRequestTime: 120 * time.Millisecond,
			ItemsPerMinute:     4,
			Efficiency:         66.7,
		},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewSimpleWriter(&buf).Write(testSummary())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != buf.Len() {
		t.Errorf("Write() = %d, want %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"JOBHARVEST RUN",
		"Run ID:",
		"run-1",
		"quota_met",
		"10 / 10",
		"Resumed from:",
		"Blocked requests:",
		"66.7%",
		"1m30s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSimpleWriterOmitsUnknownFields(t *testing.T) {
	t.Parallel()

	s := FromState(model.RunState{Saved: 3})
	s.Wanted = config.UnlimitedResults

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).Write(s); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	for _, unwanted := range []string{"Stopped:", "Resumed from:", "Stored postings:", " / "} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output contains %q:\n%s", unwanted, out)
		}
	}
	if !strings.Contains(out, fmt.Sprintf("%-18s %s\n", "Run ID:", "-")) {
		t.Errorf("missing run id placeholder:\n%s", out)
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(testSummary()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("compact output should be a single line: %q", buf.String())
		}

		var got Summary
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.RunID != "run-1" || got.Saved != 10 || got.Stats.BlockedRequests != 1 {
			t.Errorf("decoded summary = %+v", got)
		}
		if got.Dataset != nil {
			t.Errorf("Dataset = %+v, want nil", got.Dataset)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(testSummary()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"run_id\": \"run-1\"") {
			t.Errorf("expected indented output:\n%s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	s := testSummary()
	s.Dataset = &DatasetCounts{Jobs: 8, Stubs: 2}

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(s); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"# jobharvest run", "Metric", "Value", "Stored postings", "| 8", "Stored URL stubs"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{config.ReportText, "*report.SimpleWriter"},
		{config.ReportJSON, "*report.JSONWriter"},
		{config.ReportMarkdown, "*report.MarkdownWriter"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			w, err := NewWriter(tt.format, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("NewWriter() error = %v", err)
			}
			if got := typeName(w); got != tt.want {
				t.Errorf("NewWriter() = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := NewWriter("xml", &bytes.Buffer{}); !errors.Is(err, config.ErrUnknownReportFormat) {
		t.Errorf("NewWriter(xml) error = %v, want ErrUnknownReportFormat", err)
	}
}

func typeName(w Writer) string {
	switch w.(type) {
	case *SimpleWriter:
		return "*report.SimpleWriter"
	case *JSONWriter:
		return "*report.JSONWriter"
	case *MarkdownWriter:
		return "*report.MarkdownWriter"
	default:
		return "unknown"
	}
}

type failingWriter struct{}

func (failingWriter) Write(*Summary) (int, error) {
	return 0, errors.New("disk full")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
	n, err := mw.Write(testSummary())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("Write() = %d, want %d", n, text.Len()+js.Len())
	}

	var after bytes.Buffer
	mw = NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))
	if _, err := mw.Write(testSummary()); err == nil {
		t.Error("expected error from failing writer")
	}
	if after.Len() != 0 {
		t.Error("writers after a failure should not run")
	}
}
