// Package mapper resolves JSON pointers from strict-mode schema violations to
// positions in the original YAML source, using the position-carrying AST.
package mapper

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
)

// Span is a located range in the YAML source, 1-based.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Locator caches one parsed document for repeated pointer lookups.
type Locator struct {
	root ast.Node
}

// NewLocator parses the YAML source once. The returned locator resolves any
// number of pointers against the cached AST.
func NewLocator(source []byte) (*Locator, error) {
	file, err := parser.ParseBytes(source, 0)
	if err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}
	if file == nil || len(file.Docs) == 0 {
		return nil, errors.New("no YAML documents found")
	}
	return &Locator{root: file.Docs[0].Body}, nil
}

// Resolve maps an RFC 6901 pointer (e.g. "/spec/containers/0/image") to the
// span of the referenced value. A root pointer resolves to the document start.
func (l *Locator) Resolve(pointer string) (Span, error) {
	segments, err := decodePointer(pointer)
	if err != nil {
		return Span{}, err
	}
	if len(segments) == 0 {
		return nodeSpan(l.root), nil
	}

	node := l.root
	for _, segment := range segments {
		next, err := child(node, segment)
		if err != nil {
			return Span{}, fmt.Errorf("pointer %q: %w", pointer, err)
		}
		node = next
	}
	return nodeSpan(node), nil
}

// child steps one pointer segment down from node.
func child(node ast.Node, segment string) (ast.Node, error) {
	switch n := node.(type) {
	case *ast.MappingNode:
		for _, value := range n.Values {
			if keyMatches(value.Key, segment) {
				return value.Value, nil
			}
		}
		return nil, fmt.Errorf("key %q not found", segment)
	case *ast.MappingValueNode:
		if keyMatches(n.Key, segment) {
			return n.Value, nil
		}
		return nil, fmt.Errorf("key %q not found", segment)
	case *ast.SequenceNode:
		index, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("segment %q is not an index", segment)
		}
		if index < 0 || index >= len(n.Values) {
			return nil, fmt.Errorf("index %d out of range (length %d)", index, len(n.Values))
		}
		return n.Values[index], nil
	case *ast.AnchorNode:
		return child(n.Value, segment)
	default:
		return nil, fmt.Errorf("cannot traverse %T", node)
	}
}

func keyMatches(key ast.MapKeyNode, segment string) bool {
	switch k := key.(type) {
	case *ast.StringNode:
		return k.Value == segment
	default:
		if tok := key.GetToken(); tok != nil {
			return tok.Value == segment
		}
		return false
	}
}

func nodeSpan(node ast.Node) Span {
	if node == nil {
		return Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1}
	}
	tok := node.GetToken()
	if tok == nil || tok.Position == nil {
		return Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1}
	}
	start := tok.Position
	end := start.Column
	if tok.Value != "" {
		end = start.Column + len(tok.Value) - 1
	}
	return Span{
		StartLine: start.Line,
		StartCol:  start.Column,
		EndLine:   start.Line,
		EndCol:    end,
	}
}

// decodePointer splits an RFC 6901 pointer into unescaped segments.
func decodePointer(pointer string) ([]string, error) {
	if pointer == "" || pointer == "/" {
		return nil, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, errors.New("invalid JSON pointer: must start with '/'")
	}
	segments := strings.Split(pointer[1:], "/")
	for i, s := range segments {
		s = strings.ReplaceAll(s, "~1", "/")
		s = strings.ReplaceAll(s, "~0", "~")
		segments[i] = s
	}
	return segments, nil
}
