package parser

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/hirm/errors"
)

// ErrorContext selects how a RecordError is rendered.
type ErrorContext int

const (
	ErrorContextPlain    ErrorContext = iota // Single line for logs and tests
	ErrorContextTerminal                     // Colored multi-line block for terminals
)

// RecordError reports a failure tied to a position in a source. Kind is
// one of the sentinels in package errors; errors.Is matches against it.
type RecordError struct {
	Kind    error    // errors.ErrRead, ErrMalformedRecord, ErrDuplicateDefinition or ErrStructuralOrder
	Source  string   // File path or caller-supplied name
	Line    int      // 1-based raw line number
	Record  int      // 1-based logical record index
	Fields  []string // Fields of the offending record, when there is one
	Message string
	Hints   []string
}

func newRecordError(kind error, source string, ln Line, format string, args ...interface{}) *RecordError {
	return &RecordError{
		Kind:    kind,
		Source:  source,
		Line:    ln.Number,
		Record:  ln.Record,
		Fields:  ln.Fields,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements error with the plain rendering.
func (e *RecordError) Error() string {
	return e.FormatError(ErrorContextPlain)
}

// Unwrap exposes the sentinel kind.
func (e *RecordError) Unwrap() error {
	return e.Kind
}

// ErrorHint makes hints visible to errors.GetAllHints.
func (e *RecordError) ErrorHint() string {
	return strings.Join(e.Hints, "\n")
}

// WithHint appends a suggestion for fixing the record.
func (e *RecordError) WithHint(hint string) *RecordError {
	e.Hints = append(e.Hints, hint)
	return e
}

// Position returns "source:line", the form editors jump to.
func (e *RecordError) Position() string {
	if e.Source == "" {
		return fmt.Sprintf("line %d", e.Line)
	}
	return fmt.Sprintf("%s:%d", e.Source, e.Line)
}

// FormatError renders the error for ctx.
func (e *RecordError) FormatError(ctx ErrorContext) string {
	if ctx == ErrorContextTerminal {
		return e.formatTerminal()
	}
	return e.formatPlain()
}

func (e *RecordError) kindText() string {
	if e.Kind == nil {
		return "error"
	}
	return e.Kind.Error()
}

func (e *RecordError) formatPlain() string {
	return fmt.Sprintf("%s: %s: %s", e.Position(), e.kindText(), e.Message)
}

func (e *RecordError) formatTerminal() string {
	var b strings.Builder
	b.WriteString(pterm.Red(fmt.Sprintf("%s: %s", e.kindText(), e.Message)))
	b.WriteString("\n\n")
	b.WriteString(pterm.LightCyan("Context:"))
	b.WriteString(fmt.Sprintf("\n  %s %s", pterm.Yellow("Position:"), e.Position()))
	if e.Record > 0 {
		b.WriteString(fmt.Sprintf("\n  %s %d", pterm.Yellow("Record:"), e.Record))
	}
	if len(e.Fields) > 0 {
		b.WriteString(fmt.Sprintf("\n  %s %s", pterm.Yellow("Fields:"), strings.Join(e.Fields, " ")))
	}
	if len(e.Hints) > 0 {
		b.WriteString("\n\n")
		b.WriteString(pterm.Green("Suggestions:"))
		for _, h := range e.Hints {
			b.WriteString("\n  • " + h)
		}
	}
	return b.String()
}

// AsRecordError extracts a RecordError from err's chain.
func AsRecordError(err error) (*RecordError, bool) {
	var re *RecordError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
