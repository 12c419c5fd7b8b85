package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter outputs human-readable text summaries for terminal display.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary as aligned label/value lines.
func (w *SimpleWriter) Write(s *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")
	sb.WriteString("                 JOBHARVEST RUN\n")
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n\n")

	for _, row := range rows(s) {
		sb.WriteString(fmt.Sprintf("%-18s %s\n", row[0]+":", row[1]))
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}
