package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/types"
)

// recordWriter writes whitespace-separated records and remembers the first
// error, in the style of bufio.Writer.
type recordWriter struct {
	w      *bufio.Writer
	marker string
	err    error
}

func newRecordWriter(w io.Writer, marker string) *recordWriter {
	return &recordWriter{w: bufio.NewWriter(w), marker: marker}
}

// record writes one line. Every field must be non-empty and free of ASCII
// whitespace, and the first field must not read back as a comment under the
// writer's marker.
func (rw *recordWriter) record(kind string, fields ...string) {
	if rw.err != nil {
		return
	}
	for i, f := range fields {
		if !validField(f) {
			rw.err = errors.Wrapf(errors.ErrMalformedRecord,
				"%s record field %d (%q) is empty or contains whitespace", kind, i+1, f)
			return
		}
	}
	if rw.marker != "" && strings.HasPrefix(fields[0], rw.marker) {
		rw.err = errors.Wrapf(errors.ErrMalformedRecord,
			"%s record starts with comment marker: %q", kind, fields[0])
		return
	}
	_, rw.err = rw.w.WriteString(strings.Join(fields, " ") + "\n")
}

func (rw *recordWriter) blank() {
	if rw.err != nil {
		return
	}
	rw.err = rw.w.WriteByte('\n')
}

func (rw *recordWriter) flush() error {
	if rw.err != nil {
		return rw.err
	}
	return rw.w.Flush()
}

// The package-level Format functions write for a reader using
// DefaultCommentMarker. Use the Parser methods of the same name when the
// output will be read back with a different marker.

// FormatSchema writes s in schema file grammar with the default options.
func FormatSchema(w io.Writer, s *types.Schema) error {
	return New().FormatSchema(w, s)
}

// FormatObservations writes observations with the default options.
func FormatObservations(w io.Writer, observations []types.Observation) error {
	return New().FormatObservations(w, observations)
}

// FormatClusters writes clusters in the block layout with the default
// options.
func FormatClusters(w io.Writer, clusters []types.Cluster) error {
	return New().FormatClusters(w, clusters)
}

// FormatClustersSectioned writes clusters in the sectioned layout with the
// default options.
func FormatClustersSectioned(w io.Writer, clusters []types.Cluster) error {
	return New().FormatClustersSectioned(w, clusters)
}

// FormatDomainClusters writes a flat single-IRM partition with the default
// options.
func FormatDomainClusters(w io.Writer, dcs []types.DomainCluster) error {
	return New().FormatDomainClusters(w, dcs)
}

// FormatSchema writes s in schema file grammar, one relation per line in
// insertion order.
func (p *Parser) FormatSchema(w io.Writer, s *types.Schema) error {
	rw := p.recordWriter(w)
	for _, rel := range s.Relations() {
		if len(rel.Domains) == 0 {
			return errors.Wrapf(errors.ErrMalformedRecord, "relation %q has no domains", rel.Name)
		}
		fields := append([]string{rel.Name, rel.Distribution}, rel.Domains...)
		rw.record("schema", fields...)
	}
	return rw.flush()
}

// FormatObservations writes observations in file order.
func (p *Parser) FormatObservations(w io.Writer, observations []types.Observation) error {
	rw := p.recordWriter(w)
	for i, obs := range observations {
		if len(obs.Items) == 0 {
			return errors.Wrapf(errors.ErrMalformedRecord, "observation %d has no items", i+1)
		}
		fields := append([]string{obs.Value, obs.Relation}, obs.Items...)
		rw.record("observation", fields...)
	}
	return rw.flush()
}

// FormatClusters writes clusters in the block layout, one blank line
// between clusters.
func (p *Parser) FormatClusters(w io.Writer, clusters []types.Cluster) error {
	rw := p.recordWriter(w)
	for i, c := range clusters {
		if err := checkClusterStart(c); err != nil {
			return err
		}
		if i > 0 {
			rw.blank()
		}
		rw.record("cluster-start", append([]string{c.ID}, c.Relations...)...)
		for _, dc := range c.DomainClusters {
			if len(dc.Entities) == 0 {
				return errors.Wrapf(errors.ErrMalformedRecord,
					"cluster %q: domain cluster %q has no entities", c.ID, dc.ID)
			}
			if strings.HasPrefix(dc.ID, SectionPrefix) {
				return errors.Wrapf(errors.ErrMalformedRecord,
					"cluster %q: domain cluster id %q would read back as a section header", c.ID, dc.ID)
			}
			rw.record("domain-cluster", append([]string{dc.ID, dc.Domain}, dc.Entities...)...)
		}
	}
	return rw.flush()
}

// FormatClustersSectioned writes clusters in the sectioned layout: the
// cluster table, then one section per cluster.
func (p *Parser) FormatClustersSectioned(w io.Writer, clusters []types.Cluster) error {
	rw := p.recordWriter(w)
	for _, c := range clusters {
		if err := checkClusterStart(c); err != nil {
			return err
		}
		rw.record("cluster-start", append([]string{c.ID}, c.Relations...)...)
	}
	for _, c := range clusters {
		rw.blank()
		rw.record("section", SectionPrefix+c.ID)
		if err := writeDomainClusters(rw, c.DomainClusters); err != nil {
			return errors.Wrapf(err, "cluster %q", c.ID)
		}
	}
	return rw.flush()
}

// FormatDomainClusters writes a flat single-IRM partition.
func (p *Parser) FormatDomainClusters(w io.Writer, dcs []types.DomainCluster) error {
	rw := p.recordWriter(w)
	if err := writeDomainClusters(rw, dcs); err != nil {
		return err
	}
	return rw.flush()
}

func (p *Parser) recordWriter(w io.Writer) *recordWriter {
	return newRecordWriter(w, p.opts.CommentMarker)
}

func writeDomainClusters(rw *recordWriter, dcs []types.DomainCluster) error {
	for _, dc := range dcs {
		if len(dc.Entities) == 0 {
			return errors.Wrapf(errors.ErrMalformedRecord, "domain cluster %q has no entities", dc.ID)
		}
		if strings.HasPrefix(dc.Domain, SectionPrefix) {
			return errors.Wrapf(errors.ErrMalformedRecord, "domain %q would read back as a section header", dc.Domain)
		}
		rw.record("domain-cluster", append([]string{dc.Domain, dc.ID}, dc.Entities...)...)
	}
	return nil
}

func checkClusterStart(c types.Cluster) error {
	if len(c.Relations) == 0 {
		return errors.Wrapf(errors.ErrMalformedRecord, "cluster %q has no relations", c.ID)
	}
	if strings.HasPrefix(c.ID, SectionPrefix) {
		return errors.Wrapf(errors.ErrMalformedRecord, "cluster id %q would read back as a section header", c.ID)
	}
	return nil
}
