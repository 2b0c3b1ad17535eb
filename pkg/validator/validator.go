// Package validator walks a parsed document tree against a schema-derived
// adjacency model and records advisory diagnostics. It checks two things:
// whether each key is schema-permitted as a direct child of its parent, and
// whether each leaf scalar matches the schema-declared type for its key.
// Subtrees rooted at an adjacency failure are pruned; everything else is
// explored, and no failure ever aborts the traversal.
package validator

import (
	"github.com/manifestcheck/manifestcheck/pkg/schema"
	"github.com/manifestcheck/manifestcheck/pkg/tree"
)

// The fixed diagnostic vocabulary.
const (
	MessageUnknownKey       = "Command not found in k8s"
	MessageNotRootNode      = "Command is not a root node"
	MessageInvalidStatement = "This is not a valid statement"
	MessageInvalidChild     = "This is not a valid child node of the parent"
	MessageInvalidType      = "Not a valid type"
)

// Validator drives one traversal. The model is read-only and may be shared
// across validators; the sink is owned by a single traversal at a time.
type Validator struct {
	model *schema.Model
	sink  *Sink
}

// New constructs a validator over an immutable schema model.
func New(model *schema.Model, sink *Sink) *Validator {
	return &Validator{model: model, sink: sink}
}

// step is one element of a root-to-node path. Steps link to their parent
// instead of copying the whole path on every push, so extending a path is
// O(1) while the adjacency check still sees the immediate parent.
type step struct {
	node   *tree.Node // always a Mapping node
	parent *step
}

// Traverse visits every reachable Mapping node of the document once per
// distinct valid path and writes diagnostics into the sink. An empty or
// missing root is a no-op. The traversal is depth-first: paths pushed last
// are explored first.
func (v *Validator) Traverse(root *tree.Node) {
	if root == nil {
		return
	}

	var worklist []*step
	for _, entry := range rootEntries(root) {
		switch {
		case v.model.IsRoot(entry.Key):
			worklist = append(worklist, &step{node: entry})
		case v.model.HasKey(entry.Key):
			v.sink.Append(entry, MessageNotRootNode, SeverityWarning)
		default:
			v.sink.Append(entry, MessageUnknownKey, SeverityWarning)
		}
	}

	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		node := current.node

		if !v.model.HasKey(node.Key) {
			v.sink.Append(node, MessageUnknownKey, SeverityWarning)
		}
		if !v.isValid(current) {
			v.sink.Append(node, MessageInvalidStatement, SeverityWarning)
		}
		if node.Value != nil && v.isInvalidType(node) {
			v.sink.Append(node.Value, MessageInvalidType, SeverityWarning)
		}

		for _, child := range generateChildren(node.Value) {
			extended := &step{node: child, parent: current}
			if v.isValid(extended) {
				worklist = append(worklist, extended)
				continue
			}
			// Invalid subtrees are reported and pruned, not descended into.
			if !v.model.HasKey(child.Key) {
				v.sink.Append(child, MessageUnknownKey, SeverityWarning)
			}
			v.sink.Append(child, MessageInvalidChild, SeverityWarning)
		}
	}
}

// rootEntries returns the top-level mapping list of a document root.
func rootEntries(root *tree.Node) []*tree.Node {
	switch root.Kind {
	case tree.KindMappingCollection:
		return root.Entries
	case tree.KindMapping:
		return []*tree.Node{root}
	default:
		return nil
	}
}

// isValid checks adjacency of the last two path elements. A single-element
// path is trivially valid; deeper paths are valid iff the last key is in the
// unioned child set of the second-to-last key. Only the immediate
// parent/child pair is enforced, not full-path ancestry.
func (v *Validator) isValid(s *step) bool {
	if s.parent == nil {
		return true
	}
	children := v.model.ChildSet(s.parent.node.Key)
	if children == nil {
		return false
	}
	_, ok := children[s.node.Key]
	return ok
}

// isInvalidType reports whether a mapping's scalar value contradicts the
// schema-declared types for its key. Structural values (nested collections
// and sequences) are exempt. The schema source does not distinguish floats
// from ints, so any number needs a declared "integer".
func (v *Validator) isInvalidType(m *tree.Node) bool {
	value := m.Value
	if value == nil || value.Kind != tree.KindScalar {
		return false
	}
	types := v.model.TypeSet(m.Key)
	switch value.Scalar.Kind {
	case tree.ScalarNumber:
		_, ok := types["integer"]
		return !ok
	case tree.ScalarBool:
		_, ok := types["boolean"]
		return !ok
	case tree.ScalarDate, tree.ScalarNull:
		// Date recognition already implies a successful parse, and nulls
		// carry no type information to contradict.
		return false
	default:
		_, ok := types["string"]
		return !ok
	}
}

// generateChildren extracts the child Mapping nodes of a value. Sequence
// items go through the same kind dispatch, so a list of mapping collections
// contributes the entries of each collection while scalar items contribute
// nothing; paths therefore only ever contain Mapping nodes.
func generateChildren(value *tree.Node) []*tree.Node {
	switch {
	case value == nil:
		return nil
	case value.Kind == tree.KindMapping:
		return []*tree.Node{value}
	case value.Kind == tree.KindMappingCollection:
		return value.Entries
	case value.Kind == tree.KindSequence:
		var children []*tree.Node
		for _, item := range value.Items {
			children = append(children, generateChildren(item)...)
		}
		return children
	default:
		return nil
	}
}
