package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifestcheck/manifestcheck/pkg/schema"
	"github.com/manifestcheck/manifestcheck/pkg/tree"
	"github.com/manifestcheck/manifestcheck/pkg/validator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ValidateManifestArgs is the tool input: raw manifest YAML and an optional
// strict toggle.
type ValidateManifestArgs struct {
	YAML   string `json:"yaml"`
	Strict bool   `json:"strict,omitempty"`
}

// MCPServerCommand runs a stdio MCP server exposing validation as a tool, so
// editors can query diagnostics over the Model Context Protocol without
// shelling out to the CLI.
func MCPServerCommand(ctx context.Context, version string, opts Options) error {
	model, schemaJSON, err := loadModel(opts.SchemaPath)
	if err != nil {
		return err
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "manifestcheck", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_manifest",
		Description: "Validate a Kubernetes YAML manifest against the schema model and return warning diagnostics with line/column positions.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[ValidateManifestArgs]) (*mcp.CallToolResultFor[any], error) {
		report := validateSource([]byte(params.Arguments.YAML), model, schemaJSON, params.Arguments.Strict)
		return &mcp.CallToolResultFor[any]{
			Content: []mcp.Content{&mcp.TextContent{Text: report}},
		}, nil
	})

	return server.Run(ctx, mcp.NewStdioTransport())
}

// validateSource validates in-memory YAML and renders one plain-text line
// per finding.
func validateSource(source []byte, model *schema.Model, schemaJSON []byte, strict bool) string {
	doc, err := tree.Parse(source)
	if err != nil {
		return fmt.Sprintf("parse error: %v", err)
	}

	var lines []string
	for _, alias := range doc.UnresolvedAliases {
		lines = append(lines, fmt.Sprintf("1:1: warning: unresolved alias '*%s'", alias))
	}

	sink := validator.NewSink()
	validator.New(model, sink).Traverse(doc.Root)
	for _, record := range sink.Records() {
		var pos tree.Position
		if record.Node != nil {
			pos = record.Node.Pos
		}
		lines = append(lines, fmt.Sprintf("%d:%d: %s: %s", pos.Line, pos.Column, record.Severity, record.Message))
	}

	if strict {
		for _, finding := range strictFindings(source, schemaJSON) {
			lines = append(lines, fmt.Sprintf("%d:%d: %s: %s", finding.Line, finding.Column, finding.Severity, finding.Message))
		}
	}

	if len(lines) == 0 {
		return "no warnings"
	}
	return strings.Join(lines, "\n")
}
