package tree

import "time"

// Kind identifies the structural shape of a Node.
type Kind int

const (
	// KindScalar is a leaf holding a literal value.
	KindScalar Kind = iota
	// KindMapping is a single key/value pair.
	KindMapping
	// KindMappingCollection is an ordered list of Mapping entries.
	KindMappingCollection
	// KindSequence is an ordered list of arbitrary nodes.
	KindSequence
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMapping:
		return "mapping"
	case KindMappingCollection:
		return "mapping-collection"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// ScalarKind is the closed set of decoded scalar value kinds. The decoder is
// the only producer, so consumers can pattern-match exhaustively instead of
// inspecting runtime types.
type ScalarKind int

const (
	ScalarString ScalarKind = iota
	ScalarNumber
	ScalarBool
	ScalarDate
	ScalarNull
)

// String returns the schema-facing type name for the scalar kind.
func (k ScalarKind) String() string {
	switch k {
	case ScalarString:
		return "string"
	case ScalarNumber:
		return "number"
	case ScalarBool:
		return "boolean"
	case ScalarDate:
		return "date"
	case ScalarNull:
		return "null"
	default:
		return "unknown"
	}
}

// Scalar holds one decoded literal value. Only the field matching Kind is
// meaningful.
type Scalar struct {
	Kind ScalarKind
	Str  string
	Num  float64
	Bool bool
	Date time.Time
}

// Position is a 1-based source location taken from the defining YAML token.
type Position struct {
	Line   int
	Column int
}

// Node is one node of a parsed document tree.
//
// Field usage by kind:
//   - KindScalar: Scalar
//   - KindMapping: Key, Value (Value is nil for an empty value)
//   - KindMappingCollection: Entries (each entry is a KindMapping node)
//   - KindSequence: Items
type Node struct {
	Kind    Kind
	Pos     Position
	Key     string
	Value   *Node
	Entries []*Node
	Items   []*Node
	Scalar  *Scalar
}

// IsMapping reports whether the node is a key/value pair.
func (n *Node) IsMapping() bool {
	return n != nil && n.Kind == KindMapping
}
