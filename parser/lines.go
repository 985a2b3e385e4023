package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/teranos/hirm/errors"
)

// Line is one logical record: a non-blank, non-comment line split into
// fields.
type Line struct {
	Fields []string
	Number int  // 1-based line number in the raw source
	Record int  // 1-based index among logical records only
	Break  bool // at least one blank line separates this record from the previous one
}

// Scanner walks a source one logical line at a time. It mirrors
// bufio.Scanner: call Scan until it returns false, then check Err.
type Scanner struct {
	data   []byte
	source string
	marker string

	pos      int
	lineNo   int
	record   int
	sawBlank bool

	line Line
	err  error
}

// NewScanner creates a scanner over data. source names the input in error
// messages.
func NewScanner(data []byte, source string, opts Options) *Scanner {
	return &Scanner{
		data:   data,
		source: source,
		marker: opts.CommentMarker,
	}
}

// Scan advances to the next logical line. Comment lines are dropped without
// affecting Break, so stripping comments never changes what is scanned.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.pos < len(s.data) {
		raw := s.data[s.pos:]
		if i := bytes.IndexByte(raw, '\n'); i >= 0 {
			raw = raw[:i]
			s.pos += i + 1
		} else {
			s.pos = len(s.data)
		}
		s.lineNo++
		if s.lineNo == 1 {
			raw = bytes.TrimPrefix(raw, utf8BOM)
		}

		if !utf8.Valid(raw) {
			s.err = newRecordError(errors.ErrRead, s.source, Line{Number: s.lineNo, Record: s.record + 1},
				"invalid UTF-8 byte sequence")
			return false
		}

		text := strings.TrimLeft(string(raw), asciiSpace)
		if text == "" {
			if s.record > 0 {
				s.sawBlank = true
			}
			continue
		}
		if s.marker != "" && strings.HasPrefix(text, s.marker) {
			continue
		}

		s.record++
		s.line = Line{
			Fields: splitFields(text),
			Number: s.lineNo,
			Record: s.record,
			Break:  s.sawBlank,
		}
		s.sawBlank = false
		return true
	}
	return false
}

// Line returns the line produced by the last successful Scan.
func (s *Scanner) Line() Line {
	return s.line
}

// Err returns the first error met while scanning.
func (s *Scanner) Err() error {
	return s.err
}

// Lines scans all of data eagerly.
func Lines(data []byte, source string, opts Options) ([]Line, error) {
	sc := NewScanner(data, source, opts)
	var out []Line
	for sc.Scan() {
		out = append(out, sc.Line())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const asciiSpace = " \t\r\n\v\f"

// utf8BOM is dropped from the start of a source.
var utf8BOM = []byte("\xef\xbb\xbf")

func isASCIISpace(r rune) bool {
	return r < utf8.RuneSelf && strings.ContainsRune(asciiSpace, r)
}

// splitFields splits on runs of ASCII whitespace only; other Unicode spaces
// stay inside fields.
func splitFields(text string) []string {
	return strings.FieldsFunc(text, isASCIISpace)
}

// validField reports whether s survives a write/scan round trip as a single
// field.
func validField(s string) bool {
	return s != "" && strings.IndexFunc(s, isASCIISpace) < 0
}
