package report

import (
	"io"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs summaries as a Markdown table.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(s *Summary) (int, error) {
	tableRows := make([][]string, 0)
	for _, row := range rows(s) {
		tableRows = append(tableRows, []string{row[0], row[1]})
	}

	md := markdown.NewMarkdown(w.output).
		H1("jobharvest run").
		PlainText("").
		Table(markdown.TableSet{
			Header: []string{"Metric", "Value"},
			Rows:   tableRows,
		})

	return len(md.String()), md.Build()
}
