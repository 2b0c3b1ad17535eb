package cli

import (
	"strings"
	"testing"

	"github.com/manifestcheck/manifestcheck/pkg/validator"
)

func TestValidateSource(t *testing.T) {
	model, schemaJSON, err := loadModel("")
	if err != nil {
		t.Fatalf("failed to load model: %v", err)
	}

	tests := []struct {
		name   string
		source string
		strict bool
		want   []string
	}{
		{
			name:   "clean manifest",
			source: "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: config\n",
			want:   []string{"no warnings"},
		},
		{
			name:   "type warning with position",
			source: "spec:\n  replicas: nope\n",
			want:   []string{"2:13: warning: " + validator.MessageInvalidType},
		},
		{
			name:   "non-root key",
			source: "replicas: 3\n",
			want:   []string{"warning: " + validator.MessageNotRootNode},
		},
		{
			name:   "parse error",
			source: "key: [unclosed\n",
			want:   []string{"parse error:"},
		},
		{
			name:   "unresolved alias",
			source: "spec: *missing\n",
			want:   []string{"1:1: warning: unresolved alias '*missing'"},
		},
		{
			name:   "strict mode finds schema violation",
			source: "spec:\n  replicas: nope\n",
			strict: true,
			want: []string{
				"warning: " + validator.MessageInvalidType,
				"2:13: warning: got string, want integer",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := validateSource([]byte(tt.source), model, schemaJSON, tt.strict)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in output:\n%s", want, out)
				}
			}
		})
	}
}
