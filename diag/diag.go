// Package diag carries compiler diagnostics (warnings and fatal errors) to
// a sink, so lexer/parser/checker stages never couple directly to stderr.
package diag

import (
	"fmt"
	"io"

	"nilan/token"
)

// Sink receives located diagnostic messages from any compiler stage.
type Sink interface {
	Warn(loc token.Location, format string, args ...any)
	Error(loc token.Location, format string, args ...any)
}

// WriterSink writes diagnostics as lines to an io.Writer, following the
// "(L:C) WARNING: msg" / "(L:C) ERROR: msg" format verbatim.
type WriterSink struct {
	Out io.Writer
}

func NewWriterSink(out io.Writer) *WriterSink {
	return &WriterSink{Out: out}
}

func (s *WriterSink) Warn(loc token.Location, format string, args ...any) {
	fmt.Fprintf(s.Out, "%s WARNING: %s\n", loc, fmt.Sprintf(format, args...))
}

func (s *WriterSink) Error(loc token.Location, format string, args ...any) {
	fmt.Fprintf(s.Out, "%s ERROR: %s\n", loc, fmt.Sprintf(format, args...))
}

// CollectingSink buffers diagnostics in memory instead of writing them,
// letting tests assert on exact messages without capturing stderr.
type CollectingSink struct {
	Warnings []string
	Errors   []string
}

func (s *CollectingSink) Warn(loc token.Location, format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf("%s WARNING: %s", loc, fmt.Sprintf(format, args...)))
}

func (s *CollectingSink) Error(loc token.Location, format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf("%s ERROR: %s", loc, fmt.Sprintf(format, args...)))
}
