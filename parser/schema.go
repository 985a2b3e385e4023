package parser

import (
	"io"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/logger"
	"github.com/teranos/hirm/types"
)

// LoadSchema reads a schema file with default options.
func LoadSchema(path string) (*types.Schema, error) {
	return New().LoadSchema(path)
}

// ReadSchema reads schema records from r with default options.
func ReadSchema(r io.Reader, source string) (*types.Schema, error) {
	return New().ReadSchema(r, source)
}

// LoadSchema reads the schema file at path.
func (p *Parser) LoadSchema(path string) (*types.Schema, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseSchema(data, path)
}

// ReadSchema reads schema records from r. source names r in errors.
func (p *Parser) ReadSchema(r io.Reader, source string) (*types.Schema, error) {
	data, err := readSource(r, source)
	if err != nil {
		return nil, err
	}
	return p.ParseSchema(data, source)
}

// ParseSchema parses schema records of the form
//
//	name distribution domain...
//
// An n-ary relation lists all of its domains on one line, in order.
func (p *Parser) ParseSchema(data []byte, source string) (*types.Schema, error) {
	sc := p.scanner(data, source)
	schema := types.NewSchema()
	definedAt := make(map[string]int)

	for sc.Scan() {
		ln := sc.Line()
		if len(ln.Fields) < 3 {
			return nil, newRecordError(errors.ErrMalformedRecord, source, ln,
				"schema record needs at least 3 fields, got %d", len(ln.Fields)).
				WithHint("expected: name distribution domain...")
		}

		name := ln.Fields[0]
		if first, dup := definedAt[name]; dup {
			return nil, newRecordError(errors.ErrDuplicateDefinition, source, ln,
				"relation %q already defined on line %d", name, first)
		}

		rel := types.Relation{
			Name:         name,
			Distribution: ln.Fields[1],
			Domains:      ln.Fields[2:],
		}
		if err := schema.Add(rel); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", source, ln.Number)
		}
		definedAt[name] = ln.Number
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	p.log.Debugw("Loaded schema",
		logger.FieldFile, source,
		logger.FieldCount, schema.Len())
	return schema, nil
}
