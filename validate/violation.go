package validate

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/hirm/errors"
)

// Kind categorizes a reference violation for programmatic handling.
type Kind string

const (
	KindUnknownRelation      Kind = "unknown_relation"      // Observation or cluster names a relation the schema lacks
	KindArityMismatch        Kind = "arity_mismatch"        // Observation item count differs from the relation's domain count
	KindUnassignedRelation   Kind = "unassigned_relation"   // Schema relation appears in no cluster
	KindDuplicateAssignment  Kind = "duplicate_assignment"  // Relation appears in more than one cluster
	KindOverlappingPartition Kind = "overlapping_partition" // Entity in two domain clusters of one cluster and domain
	KindUnknownDomain        Kind = "unknown_domain"        // Domain cluster over a domain the schema never uses
	KindMissingEntity        Kind = "missing_entity"        // Observed item left out of its cluster's partition
	KindUnknownEntity        Kind = "unknown_entity"        // Clustered entity never observed in its domain
)

// Violation is one reference problem. Fields that do not apply are empty;
// Index is the 1-based observation position for observation checks and 0
// otherwise.
type Violation struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Relation string `json:"relation,omitempty"`
	Cluster  string `json:"cluster,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Entity   string `json:"entity,omitempty"`
	Index    int    `json:"index,omitempty"`
}

// String formats the violation as "[kind] message".
func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s", v.Kind, v.Message)
}

// ErrorContext selects how a Report is rendered.
type ErrorContext int

const (
	ErrorContextPlain    ErrorContext = iota // One violation per line
	ErrorContextTerminal                     // Colored, grouped by kind
)

// Report collects every violation found in one validation pass.
type Report struct {
	Violations []Violation `json:"violations"`
}

func (r *Report) add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// OK reports whether no violation was found.
func (r *Report) OK() bool {
	return r == nil || len(r.Violations) == 0
}

// Len returns the number of violations.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Violations)
}

// ByKind returns the violations of one kind, in discovery order.
func (r *Report) ByKind(kind Kind) []Violation {
	if r == nil {
		return nil
	}
	var out []Violation
	for _, v := range r.Violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

// Kinds returns the distinct kinds present, in discovery order.
func (r *Report) Kinds() []Kind {
	if r == nil {
		return nil
	}
	seen := make(map[Kind]bool)
	var out []Kind
	for _, v := range r.Violations {
		if !seen[v.Kind] {
			seen[v.Kind] = true
			out = append(out, v.Kind)
		}
	}
	return out
}

// Err returns nil for a clean report, otherwise an error wrapping
// errors.ErrReferenceViolation that summarizes the first violation.
func (r *Report) Err() error {
	switch r.Len() {
	case 0:
		return nil
	case 1:
		return errors.NewReferenceError("%s", r.Violations[0].String())
	default:
		return errors.NewReferenceError("%s (and %d more)", r.Violations[0].String(), len(r.Violations)-1)
	}
}

// Format renders the report for ctx.
func (r *Report) Format(ctx ErrorContext) string {
	if ctx == ErrorContextTerminal {
		return r.formatTerminal()
	}
	return r.formatPlain()
}

func (r *Report) formatPlain() string {
	if r.OK() {
		return "no violations"
	}
	lines := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		lines = append(lines, v.String())
	}
	return strings.Join(lines, "\n")
}

func (r *Report) formatTerminal() string {
	if r.OK() {
		return pterm.Green("✓ no violations")
	}
	var b strings.Builder
	b.WriteString(pterm.Red(fmt.Sprintf("%d reference violation(s)", r.Len())))
	for _, kind := range r.Kinds() {
		group := r.ByKind(kind)
		b.WriteString(fmt.Sprintf("\n\n%s %s", pterm.Yellow(string(kind)), pterm.Gray(fmt.Sprintf("(%d)", len(group)))))
		for _, v := range group {
			b.WriteString("\n  • " + v.Message)
		}
	}
	return b.String()
}
