package validator

import "github.com/manifestcheck/manifestcheck/pkg/tree"

// Severity classifies a diagnostic. The tree validator only ever emits
// warnings: it annotates suspect regions instead of failing documents,
// since schema coverage is incomplete.
type Severity string

const SeverityWarning Severity = "warning"

// Record is one accumulated diagnostic. Records are immutable once appended.
type Record struct {
	Node     *tree.Node
	Message  string
	Severity Severity
}

// Sink is an append-only diagnostic collector. It assumes a single writer
// during traversal; readers must wait until the traversal returns.
type Sink struct {
	records []Record
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Append records one diagnostic.
func (s *Sink) Append(node *tree.Node, message string, severity Severity) {
	s.records = append(s.records, Record{Node: node, Message: message, Severity: severity})
}

// Records returns the accumulated diagnostics in append order.
func (s *Sink) Records() []Record {
	return s.records
}

// Len returns the number of accumulated diagnostics.
func (s *Sink) Len() int {
	return len(s.records)
}
