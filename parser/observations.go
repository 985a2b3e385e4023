package parser

import (
	"io"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/logger"
	"github.com/teranos/hirm/types"
)

// LoadObservations reads an observation file with default options.
func LoadObservations(path string) ([]types.Observation, error) {
	return New().LoadObservations(path)
}

// ReadObservations reads observation records from r with default options.
func ReadObservations(r io.Reader, source string) ([]types.Observation, error) {
	return New().ReadObservations(r, source)
}

// LoadObservations reads the observation file at path.
func (p *Parser) LoadObservations(path string) ([]types.Observation, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseObservations(data, path)
}

// ReadObservations reads observation records from r. source names r in
// errors.
func (p *Parser) ReadObservations(r io.Reader, source string) ([]types.Observation, error) {
	data, err := readSource(r, source)
	if err != nil {
		return nil, err
	}
	return p.ParseObservations(data, source)
}

// ParseObservations parses records of the form
//
//	value relation item...
//
// The item count comes from the record itself; arity against the schema is
// checked by package validate.
func (p *Parser) ParseObservations(data []byte, source string) ([]types.Observation, error) {
	sc := p.scanner(data, source)
	observations := []types.Observation{}

	for sc.Scan() {
		ln := sc.Line()
		if len(ln.Fields) < 3 {
			return nil, newRecordError(errors.ErrMalformedRecord, source, ln,
				"observation record needs at least 3 fields, got %d", len(ln.Fields)).
				WithHint("expected: value relation item...")
		}
		observations = append(observations, types.Observation{
			Value:    ln.Fields[0],
			Relation: ln.Fields[1],
			Items:    ln.Fields[2:],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	p.log.Debugw("Loaded observations",
		logger.FieldFile, source,
		logger.FieldCount, len(observations),
		"relations", len(types.CountByRelation(observations)))
	return observations, nil
}
