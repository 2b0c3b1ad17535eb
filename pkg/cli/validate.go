package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/manifestcheck/manifestcheck/internal/mapper"
	"github.com/manifestcheck/manifestcheck/pkg/console"
	"github.com/manifestcheck/manifestcheck/pkg/constants"
	"github.com/manifestcheck/manifestcheck/pkg/schema"
	"github.com/manifestcheck/manifestcheck/pkg/tree"
	"github.com/manifestcheck/manifestcheck/pkg/validator"
	"github.com/sourcegraph/conc/pool"
)

// Options controls one validation run.
type Options struct {
	SchemaPath string
	Strict     bool
	Verbose    bool
	Exclude    []string
}

// Finding is one located diagnostic ready for rendering.
type Finding struct {
	Line     int
	Column   int
	Message  string
	Severity string
}

// FileReport collects the findings for a single manifest.
type FileReport struct {
	File     string
	Lines    []string
	Findings []Finding
	Err      error
}

// ValidateCommand discovers manifests from args, validates them in parallel,
// and renders the diagnostics. It returns the total number of findings; the
// command is advisory and only fails on I/O or schema-loading errors.
func ValidateCommand(args []string, opts Options) (int, error) {
	files, err := CollectManifestFiles(args, opts.Exclude)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		fmt.Println(console.FormatInfoMessage("no manifest files found"))
		return 0, nil
	}

	reports, err := ValidateFiles(files, opts)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, report := range reports {
		if report.Err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(fmt.Sprintf("%s: %v", report.File, report.Err)))
			continue
		}
		total += len(report.Findings)
		RenderReport(report)
	}

	if total == 0 {
		fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("%d file(s) validated, no warnings", len(files))))
	} else {
		fmt.Println(console.FormatWarningMessage(fmt.Sprintf("%d warning(s) across %d file(s)", total, len(files))))
	}
	return total, nil
}

// CollectManifestFiles expands the argument list into manifest paths.
// Directories are walked recursively; hidden directories and excluded globs
// are skipped. With no arguments the working directory is used.
func CollectManifestFiles(args []string, exclude []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	var files []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		if isExcluded(path, exclude) {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if hasManifestExtension(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasManifestExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range constants.ManifestExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func isExcluded(path string, exclude []string) bool {
	for _, pattern := range exclude {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// ValidateFiles validates the given manifests in parallel. The schema model
// is built once and shared read-only across workers; each file gets its own
// sink and worklist.
func ValidateFiles(files []string, opts Options) ([]FileReport, error) {
	model, schemaJSON, err := loadModel(opts.SchemaPath)
	if err != nil {
		return nil, err
	}

	var spin *console.Spinner
	if len(files) > 1 {
		spin = console.NewSpinner(fmt.Sprintf("validating %d manifests...", len(files)))
		spin.Start()
	}

	p := pool.NewWithResults[FileReport]().WithMaxGoroutines(constants.MaxConcurrentValidations)
	for _, file := range files {
		p.Go(func() FileReport {
			return validateOne(file, model, schemaJSON, opts)
		})
	}
	reports := p.Wait()

	if spin != nil {
		spin.Stop()
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].File < reports[j].File })
	return reports, nil
}

func loadModel(schemaPath string) (*schema.Model, []byte, error) {
	if schemaPath == "" {
		model, err := schema.Default()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load embedded schema: %w", err)
		}
		return model, schema.DefaultSchemaJSON(), nil
	}
	model, err := schema.LoadFile(schemaPath)
	if err != nil {
		return nil, nil, err
	}
	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return model, raw, nil
}

// validateOne runs the adjacency walk (and optionally strict mode) over a
// single manifest file.
func validateOne(path string, model *schema.Model, schemaJSON []byte, opts Options) FileReport {
	report := FileReport{File: path}

	content, err := os.ReadFile(path)
	if err != nil {
		report.Err = fmt.Errorf("failed to read file: %w", err)
		return report
	}
	report.Lines = strings.Split(string(content), "\n")

	doc, err := tree.Parse(content)
	if err != nil {
		report.Err = err
		return report
	}

	for _, alias := range doc.UnresolvedAliases {
		report.Findings = append(report.Findings, Finding{
			Line:     1,
			Column:   1,
			Message:  fmt.Sprintf("unresolved alias '*%s'", alias),
			Severity: string(validator.SeverityWarning),
		})
	}

	sink := validator.NewSink()
	validator.New(model, sink).Traverse(doc.Root)
	for _, record := range sink.Records() {
		finding := Finding{
			Message:  record.Message,
			Severity: string(record.Severity),
		}
		if record.Node != nil {
			finding.Line = record.Node.Pos.Line
			finding.Column = record.Node.Pos.Column
		}
		report.Findings = append(report.Findings, finding)
	}

	if opts.Strict {
		report.Findings = append(report.Findings, strictFindings(content, schemaJSON)...)
	}
	return report
}

// strictFindings runs full JSON-schema validation and maps each violation
// back to a source position.
func strictFindings(content, schemaJSON []byte) []Finding {
	var manifest map[string]any
	if err := yaml.Unmarshal(content, &manifest); err != nil {
		// The tree parse already reported on unparsable documents.
		return nil
	}

	violations, err := schema.StrictValidate(schemaJSON, manifest)
	if err != nil {
		return []Finding{{Line: 1, Column: 1, Message: err.Error(), Severity: "warning"}}
	}
	if len(violations) == 0 {
		return nil
	}

	locator, locErr := mapper.NewLocator(content)
	var findings []Finding
	for _, v := range violations {
		finding := Finding{Line: 1, Column: 1, Message: v.Message, Severity: "warning"}
		if locErr == nil {
			if span, err := locator.Resolve(v.Pointer); err == nil {
				finding.Line = span.StartLine
				finding.Column = span.StartCol
			}
		}
		findings = append(findings, finding)
	}
	return findings
}

// RenderReport prints every finding of a report with two lines of context.
func RenderReport(report FileReport) {
	for _, finding := range report.Findings {
		diagnostic := console.SourceDiagnostic{
			Position: console.Position{
				File:   report.File,
				Line:   finding.Line,
				Column: finding.Column,
			},
			Severity: finding.Severity,
			Message:  finding.Message,
		}
		if finding.Line > 0 && len(report.Lines) > 0 {
			start := finding.Line - 2
			if start < 1 {
				start = 1
			}
			end := finding.Line + 1
			if end > len(report.Lines) {
				end = len(report.Lines)
			}
			diagnostic.Context = report.Lines[start-1 : end]
			diagnostic.ContextStart = start
		}
		fmt.Print(console.FormatDiagnostic(diagnostic))
	}
}
