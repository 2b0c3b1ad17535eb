// Package console renders linter output for terminals. Styling is applied
// only when stdout is a TTY, so redirected output stays IDE-parseable.
package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Position is a location in a source file.
type Position struct {
	File   string
	Line   int
	Column int
}

// SourceDiagnostic is one renderable finding with position information.
type SourceDiagnostic struct {
	Position Position
	Severity string // "warning", "error", "info"
	Message  string
	Context  []string // source lines surrounding the position
	// ContextStart is the 1-based line number of Context[0]. Zero means the
	// context is centered on Position.Line.
	ContextStart int
	Hint         string
}

var (
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5555"))

	warningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))

	infoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50FA7B"))

	filePathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#BD93F9"))

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	contextLineStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F8F8F2"))

	highlightStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#FFB86C")).
			Foreground(lipgloss.Color("#282A36"))

	hintStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#50FA7B"))

	verboseStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6272A4"))
)

func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

func applyStyle(style lipgloss.Style, text string) string {
	if isTTY() {
		return style.Render(text)
	}
	return text
}

// ToRelativePath converts an absolute path to one relative to the working
// directory, falling back to the original on any failure.
func ToRelativePath(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil {
		return path
	}
	return rel
}

// FormatDiagnostic renders a diagnostic in the file:line:column: severity:
// message format, followed by the source context when available.
func FormatDiagnostic(d SourceDiagnostic) string {
	var output strings.Builder

	var severityStyle lipgloss.Style
	severity := d.Severity
	switch severity {
	case "error":
		severityStyle = errorStyle
	case "info":
		severityStyle = infoStyle
	default:
		severity = "warning"
		severityStyle = warningStyle
	}

	if d.Position.File != "" {
		location := fmt.Sprintf("%s:%d:%d:",
			ToRelativePath(d.Position.File),
			d.Position.Line,
			d.Position.Column)
		output.WriteString(applyStyle(filePathStyle, location))
		output.WriteString(" ")
	}

	output.WriteString(applyStyle(severityStyle, severity+":"))
	output.WriteString(" ")
	output.WriteString(d.Message)
	output.WriteString("\n")

	if len(d.Context) > 0 && d.Position.Line > 0 {
		output.WriteString(renderContext(d))
	}

	if d.Hint != "" {
		output.WriteString(applyStyle(hintStyle, "hint: "))
		output.WriteString(d.Hint)
		output.WriteString("\n")
	}

	return output.String()
}

// renderContext prints the context lines with line numbers, highlighting the
// diagnostic position and pointing at its column.
func renderContext(d SourceDiagnostic) string {
	var output strings.Builder

	firstLine := d.ContextStart
	if firstLine <= 0 {
		firstLine = d.Position.Line - len(d.Context)/2
	}
	lastLine := firstLine + len(d.Context) - 1
	lineNumWidth := len(fmt.Sprintf("%d", lastLine))

	for i, line := range d.Context {
		lineNum := firstLine + i
		if lineNum < 1 {
			continue
		}

		output.WriteString(applyStyle(lineNumberStyle, fmt.Sprintf("%*d", lineNumWidth, lineNum)))
		output.WriteString(" | ")

		// Columns count runes, so the highlight must slice by rune or a
		// multibyte character earlier in the line garbles the split.
		runes := []rune(line)
		if lineNum == d.Position.Line && d.Position.Column > 0 && d.Position.Column <= len(runes) {
			col := d.Position.Column - 1
			output.WriteString(applyStyle(contextLineStyle, string(runes[:col])))
			output.WriteString(applyStyle(highlightStyle, string(runes[col])))
			output.WriteString(applyStyle(contextLineStyle, string(runes[col+1:])))
		} else {
			output.WriteString(applyStyle(contextLineStyle, line))
		}
		output.WriteString("\n")

		if lineNum == d.Position.Line && d.Position.Column > 0 {
			padding := strings.Repeat(" ", lineNumWidth+3+d.Position.Column-1)
			output.WriteString(padding)
			output.WriteString(applyStyle(warningStyle, "^"))
			output.WriteString("\n")
		}
	}

	return output.String()
}

// FormatSuccessMessage formats a success message.
func FormatSuccessMessage(message string) string {
	return applyStyle(successStyle, "✓ ") + message
}

// FormatInfoMessage formats an informational message.
func FormatInfoMessage(message string) string {
	return applyStyle(infoStyle, "ℹ ") + message
}

// FormatWarningMessage formats a warning message.
func FormatWarningMessage(message string) string {
	return applyStyle(warningStyle, "⚠ ") + message
}

// FormatErrorMessage formats an error message for stderr output.
func FormatErrorMessage(message string) string {
	return applyStyle(errorStyle, "✗ ") + message
}

// FormatVerboseMessage formats verbose debugging output.
func FormatVerboseMessage(message string) string {
	return applyStyle(verboseStyle, message)
}

// FormatLocationMessage formats a file or directory location message.
func FormatLocationMessage(message string) string {
	return applyStyle(filePathStyle, message)
}
