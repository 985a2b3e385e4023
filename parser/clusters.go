package parser

import (
	"io"
	"strings"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/logger"
	"github.com/teranos/hirm/types"
)

// ClusterLayout identifies which of the two cluster file layouts a source
// uses.
type ClusterLayout string

const (
	// LayoutBlock groups each cluster into one block: a cluster-start
	// record followed by its domain-cluster records, blocks separated by
	// blank lines. Position alone decides a record's role: the first record
	// of a block is a cluster-start even when it looks like a domain-cluster
	// record.
	//
	//	1 paws whiskers
	//	0 animal beaver otter
	//	1 animal lion tiger
	//
	//	3 black white
	//	0 animal antelope
	LayoutBlock ClusterLayout = "block"

	// LayoutSectioned is the layout written by the inference engine: a
	// table of cluster-start records, then one "irm=<id>" section per
	// cluster whose records list domain first.
	//
	//	1 paws whiskers
	//	3 black white
	//
	//	irm=1
	//	animal 0 beaver otter
	//	animal 1 lion tiger
	//
	//	irm=3
	//	animal 0 antelope
	LayoutSectioned ClusterLayout = "sectioned"
)

// SectionPrefix opens a cluster section in the sectioned layout.
const SectionPrefix = "irm="

// LoadClusters reads a cluster file with default options.
func LoadClusters(path string) ([]types.Cluster, error) {
	return New().LoadClusters(path)
}

// ReadClusters reads cluster records from r with default options.
func ReadClusters(r io.Reader, source string) ([]types.Cluster, error) {
	return New().ReadClusters(r, source)
}

// LoadClusters reads the cluster file at path.
func (p *Parser) LoadClusters(path string) ([]types.Cluster, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseClusters(data, path)
}

// ReadClusters reads cluster records from r. source names r in errors.
func (p *Parser) ReadClusters(r io.Reader, source string) ([]types.Cluster, error) {
	data, err := readSource(r, source)
	if err != nil {
		return nil, err
	}
	return p.ParseClusters(data, source)
}

// ParseClusters parses a cluster file in either layout. The layout is
// sectioned when any record starts with SectionPrefix and block otherwise.
// Record kinds carry no tag; they follow from the record's position, which
// the clusterMachine tracks.
func (p *Parser) ParseClusters(data []byte, source string) ([]types.Cluster, error) {
	lines, err := Lines(data, source, p.opts)
	if err != nil {
		return nil, err
	}

	m := newClusterMachine(source, detectLayout(lines))
	for _, ln := range lines {
		if err := m.feed(ln); err != nil {
			return nil, err
		}
	}
	clusters, err := m.finish()
	if err != nil {
		return nil, err
	}

	p.log.Debugw("Loaded clusters",
		logger.FieldFile, source,
		logger.FieldLayout, string(m.layout),
		logger.FieldCount, len(clusters))
	return clusters, nil
}

// DetectClusterLayout reports the layout ParseClusters would pick for data.
func (p *Parser) DetectClusterLayout(data []byte) (ClusterLayout, error) {
	lines, err := Lines(data, "", p.opts)
	if err != nil {
		return "", err
	}
	return detectLayout(lines), nil
}

func detectLayout(lines []Line) ClusterLayout {
	for _, ln := range lines {
		if isSectionHeader(ln) {
			return LayoutSectioned
		}
	}
	return LayoutBlock
}

func isSectionHeader(ln Line) bool {
	return len(ln.Fields) > 0 && strings.HasPrefix(ln.Fields[0], SectionPrefix)
}

// clusterState is the position of the scan within the cluster grammar.
type clusterState int

const (
	stateAwaitingCluster clusterState = iota // no cluster open
	stateInCluster                           // records belong to the open cluster
	stateTable                               // sectioned layout: reading the cluster table
)

func (s clusterState) String() string {
	switch s {
	case stateAwaitingCluster:
		return "awaiting-cluster"
	case stateInCluster:
		return "in-cluster"
	case stateTable:
		return "table"
	default:
		return "unknown"
	}
}

// clusterMachine accumulates clusters record by record.
type clusterMachine struct {
	source string
	layout ClusterLayout
	state  clusterState

	clusters  []types.Cluster
	index     map[string]int // cluster id -> position in clusters
	startLine map[string]int // cluster id -> line of its cluster-start record
	opened    map[string]int // sectioned: cluster id -> line of its header
	current   int

	// domain + "\x00" + domain-cluster id -> line, reset per open cluster
	blockIDs map[string]int
}

func newClusterMachine(source string, layout ClusterLayout) *clusterMachine {
	m := &clusterMachine{
		source:    source,
		layout:    layout,
		state:     stateAwaitingCluster,
		index:     make(map[string]int),
		startLine: make(map[string]int),
		opened:    make(map[string]int),
		current:   -1,
	}
	if layout == LayoutSectioned {
		m.state = stateTable
	}
	return m
}

func (m *clusterMachine) feed(ln Line) error {
	if m.layout == LayoutSectioned {
		return m.feedSectioned(ln)
	}
	return m.feedBlock(ln)
}

func (m *clusterMachine) feedBlock(ln Line) error {
	if m.state == stateInCluster && ln.Break {
		m.closeCluster()
	}
	switch m.state {
	case stateAwaitingCluster:
		return m.startCluster(ln)
	case stateInCluster:
		if len(ln.Fields) < 3 {
			return m.malformed(ln, "domain-cluster record needs at least 3 fields, got %d", len(ln.Fields)).
				WithHint("expected: domain_cluster_id domain entity...")
		}
		return m.addDomainCluster(ln, ln.Fields[0], ln.Fields[1], ln.Fields[2:])
	default:
		return m.structural(ln, "unexpected record in state %s", m.state)
	}
}

func (m *clusterMachine) feedSectioned(ln Line) error {
	if m.state == stateTable && (ln.Break || isSectionHeader(ln)) {
		m.state = stateAwaitingCluster
	}
	if m.state == stateInCluster && ln.Break && !isSectionHeader(ln) {
		m.closeCluster()
	}

	if isSectionHeader(ln) {
		return m.openSection(ln)
	}

	switch m.state {
	case stateTable:
		if err := m.startCluster(ln); err != nil {
			return err
		}
		m.closeCluster()
		m.state = stateTable
		return nil
	case stateInCluster:
		if len(ln.Fields) < 3 {
			return m.malformed(ln, "domain-cluster record needs at least 3 fields, got %d", len(ln.Fields)).
				WithHint("expected: domain domain_cluster_id entity...")
		}
		return m.addDomainCluster(ln, ln.Fields[1], ln.Fields[0], ln.Fields[2:])
	default:
		return m.structural(ln, "domain-cluster record with no open cluster").
			WithHint("start each cluster section with an " + SectionPrefix + "<cluster_id> line")
	}
}

// startCluster handles a cluster-start record: cluster_id relation...
func (m *clusterMachine) startCluster(ln Line) error {
	if len(ln.Fields) < 2 {
		return m.malformed(ln, "cluster-start record needs at least 2 fields, got %d", len(ln.Fields)).
			WithHint("expected: cluster_id relation...")
	}
	id := ln.Fields[0]
	if first, dup := m.startLine[id]; dup {
		return newRecordError(errors.ErrDuplicateDefinition, m.source, ln,
			"cluster %q already defined on line %d", id, first)
	}

	m.index[id] = len(m.clusters)
	m.startLine[id] = ln.Number
	m.clusters = append(m.clusters, types.Cluster{
		ID:        id,
		Relations: ln.Fields[1:],
	})
	m.open(len(m.clusters) - 1)
	return nil
}

// openSection handles an irm=<id> header in the sectioned layout.
func (m *clusterMachine) openSection(ln Line) error {
	if len(ln.Fields) != 1 {
		return m.malformed(ln, "section header takes no fields after %s<id>", SectionPrefix)
	}
	id := strings.TrimPrefix(ln.Fields[0], SectionPrefix)
	if id == "" {
		return m.malformed(ln, "section header is missing a cluster id")
	}
	if first, dup := m.opened[id]; dup {
		return newRecordError(errors.ErrDuplicateDefinition, m.source, ln,
			"section for cluster %q already opened on line %d", id, first)
	}
	pos, ok := m.index[id]
	if !ok {
		return m.structural(ln, "section for cluster %q which the cluster table does not declare", id)
	}

	m.opened[id] = ln.Number
	m.open(pos)
	return nil
}

func (m *clusterMachine) addDomainCluster(ln Line, id, domain string, entities []string) error {
	key := domain + "\x00" + id
	if first, dup := m.blockIDs[key]; dup {
		return newRecordError(errors.ErrDuplicateDefinition, m.source, ln,
			"domain cluster %q of domain %q already defined on line %d", id, domain, first)
	}
	m.blockIDs[key] = ln.Number

	c := &m.clusters[m.current]
	c.DomainClusters = append(c.DomainClusters, types.DomainCluster{
		ID:       id,
		Domain:   domain,
		Entities: entities,
	})
	return nil
}

func (m *clusterMachine) open(pos int) {
	m.current = pos
	m.state = stateInCluster
	m.blockIDs = make(map[string]int)
}

func (m *clusterMachine) closeCluster() {
	m.current = -1
	m.state = stateAwaitingCluster
	m.blockIDs = nil
}

// finish closes the scan at end of input. An input with no records yields
// an empty, non-nil slice.
func (m *clusterMachine) finish() ([]types.Cluster, error) {
	m.closeCluster()
	if m.layout == LayoutSectioned {
		for _, c := range m.clusters {
			if _, ok := m.opened[c.ID]; !ok {
				return nil, m.structural(Line{Number: m.startLine[c.ID]},
					"cluster %q has no %s%s section", c.ID, SectionPrefix, c.ID)
			}
		}
	}
	if m.clusters == nil {
		return []types.Cluster{}, nil
	}
	return m.clusters, nil
}

func (m *clusterMachine) malformed(ln Line, format string, args ...interface{}) *RecordError {
	return newRecordError(errors.ErrMalformedRecord, m.source, ln, format, args...)
}

func (m *clusterMachine) structural(ln Line, format string, args ...interface{}) *RecordError {
	return newRecordError(errors.ErrStructuralOrder, m.source, ln, format, args...)
}

// LoadDomainClusters reads a flat single-IRM cluster file with default
// options.
func LoadDomainClusters(path string) ([]types.DomainCluster, error) {
	return New().LoadDomainClusters(path)
}

// ReadDomainClusters reads flat domain-cluster records from r with default
// options.
func ReadDomainClusters(r io.Reader, source string) ([]types.DomainCluster, error) {
	return New().ReadDomainClusters(r, source)
}

// LoadDomainClusters reads the flat cluster file at path.
func (p *Parser) LoadDomainClusters(path string) ([]types.DomainCluster, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseDomainClusters(data, path)
}

// ReadDomainClusters reads flat domain-cluster records from r.
func (p *Parser) ReadDomainClusters(r io.Reader, source string) ([]types.DomainCluster, error) {
	data, err := readSource(r, source)
	if err != nil {
		return nil, err
	}
	return p.ParseDomainClusters(data, source)
}

// ParseDomainClusters parses the partition of a single, non-hierarchical
// model. Each record is
//
//	domain domain_cluster_id entity...
func (p *Parser) ParseDomainClusters(data []byte, source string) ([]types.DomainCluster, error) {
	sc := p.scanner(data, source)
	seen := make(map[string]int)
	var out []types.DomainCluster

	for sc.Scan() {
		ln := sc.Line()
		if len(ln.Fields) < 3 {
			return nil, newRecordError(errors.ErrMalformedRecord, source, ln,
				"domain-cluster record needs at least 3 fields, got %d", len(ln.Fields)).
				WithHint("expected: domain domain_cluster_id entity...")
		}
		domain, id := ln.Fields[0], ln.Fields[1]
		key := domain + "\x00" + id
		if first, dup := seen[key]; dup {
			return nil, newRecordError(errors.ErrDuplicateDefinition, source, ln,
				"domain cluster %q of domain %q already defined on line %d", id, domain, first)
		}
		seen[key] = ln.Number
		out = append(out, types.DomainCluster{ID: id, Domain: domain, Entities: ln.Fields[2:]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	p.log.Debugw("Loaded domain clusters",
		logger.FieldFile, source,
		logger.FieldCount, len(out))
	return out, nil
}
