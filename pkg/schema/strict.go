package schema

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Violation is a single strict-mode finding: the JSON pointer of the
// offending value and a cleaned validation message.
type Violation struct {
	Pointer string
	Message string
}

const schemaResourceURL = "manifestcheck:///schema.json"

// StrictValidate runs full JSON-schema validation of a decoded manifest
// against the raw schema document. It complements the adjacency walk: the
// core validator stays advisory, while strict mode reports everything the
// schema language can express. The returned violations carry JSON pointers
// so callers can map them back to source positions.
func StrictValidate(schemaJSON []byte, manifest map[string]any) ([]Violation, error) {
	compiler := jsonschema.NewCompiler()

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
	}
	if err := compiler.AddResource(schemaResourceURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(schemaResourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// Round-trip through JSON to normalize YAML-decoded value types.
	if manifest == nil {
		manifest = make(map[string]any)
	}
	raw, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("failed to normalize manifest: %w", err)
	}

	err = compiled.Validate(normalized)
	if err == nil {
		return nil, nil
	}
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	return collectViolations(validationErr), nil
}

// collectViolations flattens the cause tree into leaf violations.
func collectViolations(err *jsonschema.ValidationError) []Violation {
	if len(err.Causes) == 0 {
		return []Violation{{
			Pointer: instancePointer(err.InstanceLocation),
			Message: cleanMessage(err.Error()),
		}}
	}
	var violations []Violation
	for _, cause := range err.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

// instancePointer converts an instance location to a JSON pointer string.
func instancePointer(location []string) string {
	if len(location) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range location {
		b.WriteString("/")
		b.WriteString(part)
	}
	return b.String()
}

// cleanMessage strips the unhelpful framing the jsonschema library puts
// around individual error descriptions.
func cleanMessage(msg string) string {
	var cleaned []string
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "jsonschema validation failed") {
			continue
		}
		line = strings.TrimPrefix(line, "- ")
		if strings.HasPrefix(line, "at '") {
			if idx := strings.Index(line, "': "); idx != -1 {
				line = line[idx+len("': "):]
			}
		}
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	if len(cleaned) == 0 {
		return "schema validation failed"
	}
	return strings.Join(cleaned, "\n")
}
