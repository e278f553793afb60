package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/lumenscan/lumen/internal/scan"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *scan.Report) error {
	ew := &errWriter{w: w}

	ew.printf("Lumen Code Scan — %s/%s\n", report.Provider, report.Model)
	if report.Root != "" {
		ew.printf("Root: %s\n", report.Root)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files: %d | Checks: %d | Findings: %d\n",
		report.Stats.FilesScanned, report.Stats.Units, report.Stats.TotalFindings)
	if report.Stats.Failures > 0 {
		ew.printf("Checks without a usable answer: %d\n", report.Stats.Failures)
	}
	ew.println(strings.Repeat("─", 60))

	for _, file := range report.Files {
		ew.printf("\n%s (%s)\n", file.Path, file.Language)
		for _, cat := range file.Categories {
			ew.printf("  %s\n", strings.ToUpper(cat.Category))
			for _, e := range cat.Entries {
				ew.printf("  · %s%s\n", e.Subcategory, lineRange(e))
				switch {
				case e.Error != "":
					ew.printf("    [unavailable] %s\n", e.Error)
				case e.NoIssues:
					ew.println("    no issues found")
				case len(e.Findings) > 0:
					for _, f := range e.Findings {
						for i, line := range wrapText(f, 70) {
							if i == 0 {
								ew.printf("    - %s\n", line)
							} else {
								ew.printf("      %s\n", line)
							}
						}
					}
				default:
					for _, line := range wrapText(e.FindingsText, 70) {
						ew.printf("    %s\n", line)
					}
				}
			}
		}
	}

	for _, tl := range report.TooLarge {
		ew.printf("\n[skipped] %s: %d estimated tokens exceeds the %d limit\n",
			tl.Unit.Path, tl.EstimatedTokens, tl.Limit)
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (LLM: %dms), %d/%d batches succeeded\n",
		report.Timing.TotalMs, report.Timing.LLMMs,
		report.Stats.Completed, report.Stats.Batches)

	return ew.err
}

func lineRange(e scan.Entry) string {
	if e.StartLine > 0 {
		return fmt.Sprintf(" (lines %d-%d)", e.StartLine, e.EndLine)
	}
	return ""
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
