package validator

import (
	"testing"

	"github.com/manifestcheck/manifestcheck/pkg/schema"
	"github.com/manifestcheck/manifestcheck/pkg/tree"
)

// testModel mirrors a small slice of a workload schema: spec is a root key
// with a string value and a replicas child; replicas is an integer leaf.
func testModel() *schema.Model {
	return schema.New(
		[]string{"spec"},
		map[string][]schema.Descriptor{
			"spec":     {{Type: "string", Children: []string{"replicas"}}},
			"replicas": {{Type: "integer"}},
		},
	)
}

func mustParse(t *testing.T, source string) *tree.Node {
	t.Helper()
	doc, err := tree.Parse([]byte(source))
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc.Root
}

func runTraversal(t *testing.T, model *schema.Model, source string) []Record {
	t.Helper()
	sink := NewSink()
	New(model, sink).Traverse(mustParse(t, source))
	return sink.Records()
}

func messages(records []Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Message)
	}
	return out
}

func TestTraverseEmptyDocument(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "empty input", source: ""},
		{name: "comment only", source: "# nothing here\n"},
		{name: "bare scalar document", source: "just a string\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := runTraversal(t, testModel(), tt.source)
			if len(records) != 0 {
				t.Errorf("expected no diagnostics, got %v", messages(records))
			}
		})
	}
}

func TestTraverseNilRoot(t *testing.T) {
	sink := NewSink()
	New(testModel(), sink).Traverse(nil)
	if sink.Len() != 0 {
		t.Errorf("expected no diagnostics for nil root, got %d", sink.Len())
	}
}

func TestRootLevelClassification(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "known root key",
			source: "spec:\n  replicas: 3\n",
			want:   nil,
		},
		{
			name:   "known key misused at root",
			source: "replicas: 3\n",
			want:   []string{MessageNotRootNode},
		},
		{
			name:   "key unknown everywhere",
			source: "foo: bar\n",
			want:   []string{MessageUnknownKey},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := runTraversal(t, testModel(), tt.source)
			got := messages(records)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("diagnostic %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestTypeMismatchOnStringReplicas(t *testing.T) {
	records := runTraversal(t, testModel(), "spec:\n  replicas: \"3\"\n")
	if len(records) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %v", messages(records))
	}
	if records[0].Message != MessageInvalidType {
		t.Errorf("expected %q, got %q", MessageInvalidType, records[0].Message)
	}
	if records[0].Severity != SeverityWarning {
		t.Errorf("expected warning severity, got %q", records[0].Severity)
	}
}

func TestIntegerReplicasIsClean(t *testing.T) {
	records := runTraversal(t, testModel(), "spec:\n  replicas: 3\n")
	if len(records) != 0 {
		t.Errorf("expected no diagnostics, got %v", messages(records))
	}
}

func TestUnknownChildIsReportedAndPruned(t *testing.T) {
	records := runTraversal(t, testModel(), "spec:\n  unknownChild: 1\n")
	got := messages(records)
	want := []string{MessageUnknownKey, MessageInvalidChild}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("diagnostic %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	// Both diagnostics must target the child, not spec.
	for _, r := range records {
		if r.Node == nil || r.Node.Key != "unknownChild" {
			t.Errorf("diagnostic %q targets %v, expected unknownChild", r.Message, r.Node)
		}
	}
}

func TestPruningSkipsDescendantsOfInvalidChild(t *testing.T) {
	source := "spec:\n  unknownChild:\n    alsoUnknown:\n      deeper: 1\n"
	records := runTraversal(t, testModel(), source)
	for _, r := range records {
		if r.Node != nil && (r.Node.Key == "alsoUnknown" || r.Node.Key == "deeper") {
			t.Errorf("descendant %q of pruned subtree produced diagnostic %q", r.Node.Key, r.Message)
		}
	}
	if len(records) != 2 {
		t.Errorf("expected 2 diagnostics on the pruned child only, got %v", messages(records))
	}
}

func TestStructuralValuesExemptFromTypeCheck(t *testing.T) {
	// spec declares type "string" but carries a nested mapping; structural
	// values never produce a type mismatch.
	records := runTraversal(t, testModel(), "spec:\n  replicas: 3\n")
	for _, r := range records {
		if r.Message == MessageInvalidType {
			t.Errorf("structural value produced a type mismatch")
		}
	}

	model := schema.New(
		[]string{"spec"},
		map[string][]schema.Descriptor{
			"spec":  {{Type: "string", Children: []string{"items"}}},
			"items": {{Type: "string"}},
		},
	)
	records = runTraversal(t, model, "spec:\n  items:\n    - 1\n    - 2\n")
	for _, r := range records {
		if r.Message == MessageInvalidType {
			t.Errorf("sequence value produced a type mismatch: %v", messages(records))
		}
	}
}

func TestIdempotentTraversal(t *testing.T) {
	source := "spec:\n  replicas: \"3\"\n  unknownChild: 1\nfoo: bar\n"
	model := testModel()
	root := mustParse(t, source)

	first := NewSink()
	New(model, first).Traverse(root)
	second := NewSink()
	New(model, second).Traverse(root)

	if first.Len() != second.Len() {
		t.Fatalf("diagnostic counts differ: %d vs %d", first.Len(), second.Len())
	}
	for i := range first.Records() {
		a, b := first.Records()[i], second.Records()[i]
		if a.Message != b.Message || a.Node != b.Node || a.Severity != b.Severity {
			t.Errorf("diagnostic %d differs between runs: %+v vs %+v", i, a, b)
		}
	}
}

func TestDepthFirstOrder(t *testing.T) {
	// Both roots are pushed in document order; the worklist is LIFO, so the
	// later root's subtree is fully explored first.
	model := schema.New(
		[]string{"first", "second"},
		map[string][]schema.Descriptor{
			"first":  {{Type: "object", Children: []string{"fa"}}},
			"second": {{Type: "object", Children: []string{"sa"}}},
			"fa":     {{Type: "integer"}},
			"sa":     {{Type: "integer"}},
		},
	)
	source := "first:\n  fa: \"x\"\nsecond:\n  sa: \"y\"\n"
	records := runTraversal(t, model, source)
	if len(records) != 2 {
		t.Fatalf("expected 2 type diagnostics, got %v", messages(records))
	}
	if records[0].Node.Pos.Line <= records[1].Node.Pos.Line {
		t.Errorf("expected second subtree to be explored before first (LIFO), got lines %d then %d",
			records[0].Node.Pos.Line, records[1].Node.Pos.Line)
	}
}

func TestDescriptorUnionAcrossParents(t *testing.T) {
	// "port" is legal under both svc and container with different children;
	// adjacency must union the descriptors.
	model := schema.New(
		[]string{"svc", "container"},
		map[string][]schema.Descriptor{
			"svc":       {{Type: "object", Children: []string{"port"}}},
			"container": {{Type: "object", Children: []string{"port"}}},
			"port": {
				{Type: "object", Children: []string{"nodePort"}},
				{Type: "object", Children: []string{"hostPort"}},
			},
			"nodePort": {{Type: "integer"}},
			"hostPort": {{Type: "integer"}},
		},
	)
	records := runTraversal(t, model, "svc:\n  port:\n    hostPort: 1\n    nodePort: 2\n")
	if len(records) != 0 {
		t.Errorf("expected union of descriptors to accept both children, got %v", messages(records))
	}
}

func TestSequenceOfMappingsFollowsAdjacency(t *testing.T) {
	model := schema.New(
		[]string{"spec"},
		map[string][]schema.Descriptor{
			"spec":       {{Type: "object", Children: []string{"containers"}}},
			"containers": {{Type: "array", Children: []string{"name", "image"}}},
			"name":       {{Type: "string"}},
			"image":      {{Type: "string"}},
		},
	)
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "valid list entries",
			source: "spec:\n  containers:\n    - name: app\n      image: nginx\n",
			want:   nil,
		},
		{
			name:   "unknown key inside list entry",
			source: "spec:\n  containers:\n    - name: app\n      bogus: 1\n",
			want:   []string{MessageUnknownKey, MessageInvalidChild},
		},
		{
			name:   "scalar list items contribute nothing",
			source: "spec:\n  containers:\n    - just-a-string\n",
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messages(runTraversal(t, model, tt.source))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("diagnostic %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestInvalidStatementOnUnknownParent(t *testing.T) {
	// "orphan" is a root key with no registered descriptor, so any child
	// fails adjacency against it and orphan itself is unknown when popped.
	model := schema.New(
		[]string{"orphan"},
		map[string][]schema.Descriptor{
			"child": {{Type: "string"}},
		},
	)
	records := runTraversal(t, model, "orphan:\n  child: x\n")
	got := messages(records)
	// orphan: unknown key; child: invalid against unknown parent.
	want := []string{MessageUnknownKey, MessageInvalidChild}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("diagnostic %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBooleanAndDateScalars(t *testing.T) {
	model := schema.New(
		[]string{"spec"},
		map[string][]schema.Descriptor{
			"spec":    {{Type: "object", Children: []string{"suspend", "started", "label"}}},
			"suspend": {{Type: "boolean"}},
			"started": {{Type: "string"}},
			"label":   {{Type: "boolean"}},
		},
	)
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{name: "boolean matches boolean", source: "spec:\n  suspend: true\n", want: 0},
		{name: "date-like value is never a mismatch", source: "spec:\n  started: 2024-01-15\n", want: 0},
		{name: "string against boolean", source: "spec:\n  label: yes-please\n", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := runTraversal(t, model, tt.source)
			if len(records) != tt.want {
				t.Errorf("expected %d diagnostics, got %v", tt.want, messages(records))
			}
		})
	}
}

func TestDiagnosticTargetsCarryPositions(t *testing.T) {
	records := runTraversal(t, testModel(), "spec:\n  replicas: \"3\"\n")
	if len(records) != 1 {
		t.Fatalf("expected one diagnostic, got %v", messages(records))
	}
	pos := records[0].Node.Pos
	if pos.Line != 2 {
		t.Errorf("expected diagnostic on line 2, got line %d", pos.Line)
	}
	if pos.Column == 0 {
		t.Errorf("expected a non-zero column")
	}
}
