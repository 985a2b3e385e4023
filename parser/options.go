// Package parser reads and writes the HIRM plain-text formats: schema
// files, observation files and cluster (partition) files.
//
// All formats share one line convention. Records are newline-delimited,
// fields are separated by runs of ASCII whitespace, blank lines are
// skipped and lines whose first non-blank characters are the comment
// marker are dropped. Loaders read a whole source into memory, parse it
// without consulting any schema, and either return a complete value or an
// error; nothing partial is exposed. Cross-file checks live in package
// validate.
package parser

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/logger"
)

// DefaultCommentMarker starts a comment line in every format.
const DefaultCommentMarker = "#"

// Options tune the shared line convention.
type Options struct {
	// CommentMarker is the prefix that marks a comment line once leading
	// whitespace is stripped. Empty disables comments.
	CommentMarker string `mapstructure:"comment_marker" toml:"comment_marker"`
}

// DefaultOptions returns the options used by the package-level loaders.
func DefaultOptions() Options {
	return Options{CommentMarker: DefaultCommentMarker}
}

// Parser loads HIRM text files with a fixed set of options. A Parser holds
// no mutable state and is safe for concurrent use.
type Parser struct {
	opts Options
	log  *zap.SugaredLogger
}

// Option configures a Parser.
type Option func(*Parser)

// WithOptions replaces all options at once.
func WithOptions(opts Options) Option {
	return func(p *Parser) { p.opts = opts }
}

// WithCommentMarker sets the comment marker.
func WithCommentMarker(marker string) Option {
	return func(p *Parser) { p.opts.CommentMarker = marker }
}

// WithLogger sets the logger used for load summaries.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Parser) { p.log = log }
}

// New creates a Parser. Without options it behaves like the package-level
// functions.
func New(opts ...Option) *Parser {
	p := &Parser{
		opts: DefaultOptions(),
		log:  logger.ComponentLogger("parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Options returns the options the parser was built with.
func (p *Parser) Options() Options {
	return p.opts
}

// scanner starts a line scan of data using the parser's options.
func (p *Parser) scanner(data []byte, source string) *Scanner {
	return NewScanner(data, source, p.opts)
}

// readFile loads the whole file at path. The handle is closed on every
// return path.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapRead(err, path)
	}
	defer f.Close()

	return readSource(f, path)
}

func readSource(r io.Reader, source string) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapRead(err, source)
	}
	return data, nil
}
