package tree

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
)

// Document is the result of decoding one YAML document.
type Document struct {
	// Root is the top-level mapping collection, or nil for an empty document.
	Root *Node
	// UnresolvedAliases lists alias names that could not be substituted,
	// because no anchor with that name exists or because the reference is
	// cyclic. The corresponding nodes decode to Null scalars.
	UnresolvedAliases []string
}

// Parse decodes the first YAML document in source into a tree.
func Parse(source []byte) (*Document, error) {
	file, err := parser.ParseBytes(source, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if file == nil || len(file.Docs) == 0 {
		return &Document{}, nil
	}
	return Decode(file.Docs[0]), nil
}

// Decode converts a parsed YAML document into a tree. Anchors are recorded and
// alias references are substituted with the anchored subtree, so the returned
// tree contains only concrete nodes. Cyclic references decode to Null scalars
// and are reported through UnresolvedAliases.
func Decode(doc *ast.DocumentNode) *Document {
	d := &decoder{
		anchors:   make(map[string]ast.Node),
		expanding: make(map[string]struct{}),
	}
	result := &Document{}
	if doc == nil || doc.Body == nil {
		return result
	}

	switch body := doc.Body.(type) {
	case *ast.MappingNode:
		result.Root = d.decodeCollection(body)
	case *ast.MappingValueNode:
		entry := d.decodeEntry(body)
		result.Root = &Node{
			Kind:    KindMappingCollection,
			Pos:     position(body),
			Entries: []*Node{entry},
		}
	default:
		// A document whose body is not a mapping (bare scalar or sequence)
		// has no mapping list to validate.
	}

	result.UnresolvedAliases = d.unresolved
	return result
}

// maxAliasExpansions bounds the total number of alias substitutions per
// document, so anchors multiplied through nested references cannot blow up the
// decoded tree.
const maxAliasExpansions = 10000

type decoder struct {
	anchors map[string]ast.Node
	// expanding holds the anchor names whose subtrees are currently being
	// decoded. An alias that re-enters one of them is a cycle.
	expanding  map[string]struct{}
	expansions int
	unresolved []string
}

func (d *decoder) decodeCollection(n *ast.MappingNode) *Node {
	node := &Node{Kind: KindMappingCollection, Pos: position(n)}
	for _, value := range n.Values {
		if value == nil {
			continue
		}
		node.Entries = append(node.Entries, d.decodeEntry(value))
	}
	return node
}

func (d *decoder) decodeEntry(n *ast.MappingValueNode) *Node {
	entry := &Node{Kind: KindMapping, Pos: position(n.Key), Key: keyString(n.Key)}
	entry.Value = d.decodeValue(n.Value)
	return entry
}

// decodeValue decodes the value side of a mapping entry. Explicit nulls and
// missing values both decode to nil, matching the "value or null" data model.
func (d *decoder) decodeValue(n ast.Node) *Node {
	switch v := n.(type) {
	case nil:
		return nil
	case *ast.NullNode:
		return nil
	case *ast.AnchorNode:
		if name := d.recordAnchor(v); name != "" {
			d.expanding[name] = struct{}{}
			defer delete(d.expanding, name)
		}
		return d.decodeValue(v.Value)
	case *ast.TagNode:
		return d.decodeValue(v.Value)
	default:
		return d.decodeNode(n)
	}
}

func (d *decoder) decodeNode(n ast.Node) *Node {
	switch v := n.(type) {
	case nil:
		return nil
	case *ast.MappingNode:
		return d.decodeCollection(v)
	case *ast.MappingValueNode:
		// goccy parses a single-pair nested mapping as a bare MappingValueNode.
		return d.decodeEntry(v)
	case *ast.SequenceNode:
		node := &Node{Kind: KindSequence, Pos: position(v)}
		for _, item := range v.Values {
			if decoded := d.decodeNode(item); decoded != nil {
				node.Items = append(node.Items, decoded)
			}
		}
		return node
	case *ast.AnchorNode:
		if name := d.recordAnchor(v); name != "" {
			d.expanding[name] = struct{}{}
			defer delete(d.expanding, name)
		}
		return d.decodeNode(v.Value)
	case *ast.AliasNode:
		name := nodeText(v.Value)
		target, known := d.anchors[name]
		_, busy := d.expanding[name]
		if !known || busy || d.expansions >= maxAliasExpansions {
			// Missing anchors, cycles, and documents past the expansion
			// budget all decode to null so substitution always terminates.
			d.unresolved = append(d.unresolved, name)
			return scalarNode(n, &Scalar{Kind: ScalarNull})
		}
		d.expansions++
		d.expanding[name] = struct{}{}
		decoded := d.decodeNode(target)
		delete(d.expanding, name)
		return decoded
	case *ast.TagNode:
		return d.decodeNode(v.Value)
	case *ast.StringNode:
		if date, ok := parseDate(v.Value); ok {
			return scalarNode(n, &Scalar{Kind: ScalarDate, Date: date})
		}
		return scalarNode(n, &Scalar{Kind: ScalarString, Str: v.Value})
	case *ast.LiteralNode:
		var text string
		if v.Value != nil {
			text = v.Value.Value
		}
		return scalarNode(n, &Scalar{Kind: ScalarString, Str: text})
	case *ast.IntegerNode:
		return scalarNode(n, &Scalar{Kind: ScalarNumber, Num: integerValue(v.Value)})
	case *ast.FloatNode:
		return scalarNode(n, &Scalar{Kind: ScalarNumber, Num: v.Value})
	case *ast.InfinityNode:
		return scalarNode(n, &Scalar{Kind: ScalarNumber, Num: v.Value})
	case *ast.NanNode:
		return scalarNode(n, &Scalar{Kind: ScalarNumber, Num: math.NaN()})
	case *ast.BoolNode:
		return scalarNode(n, &Scalar{Kind: ScalarBool, Bool: v.Value})
	case *ast.NullNode:
		return scalarNode(n, &Scalar{Kind: ScalarNull})
	default:
		return scalarNode(n, &Scalar{Kind: ScalarString, Str: nodeText(n)})
	}
}

func (d *decoder) recordAnchor(n *ast.AnchorNode) string {
	name := nodeText(n.Name)
	if name != "" {
		d.anchors[name] = n.Value
	}
	return name
}

func scalarNode(n ast.Node, s *Scalar) *Node {
	return &Node{Kind: KindScalar, Pos: position(n), Scalar: s}
}

// keyString extracts the string form of a mapping key node.
func keyString(key ast.MapKeyNode) string {
	switch k := key.(type) {
	case *ast.StringNode:
		return k.Value
	case *ast.MappingKeyNode:
		return nodeText(k.Value)
	default:
		return nodeText(key)
	}
}

// nodeText falls back to the raw token text of a node.
func nodeText(n ast.Node) string {
	if n == nil {
		return ""
	}
	if tok := n.GetToken(); tok != nil {
		return tok.Value
	}
	return ""
}

func position(n ast.Node) Position {
	if n == nil {
		return Position{}
	}
	tok := n.GetToken()
	if tok == nil || tok.Position == nil {
		return Position{}
	}
	return Position{Line: tok.Position.Line, Column: tok.Position.Column}
}

func integerValue(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}

// dateLayouts is the exact set of scalar encodings recognized as dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
