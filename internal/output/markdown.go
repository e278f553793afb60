package output

import (
	"io"
	"strings"
	"time"

	"github.com/lumenscan/lumen/internal/scan"
)

// MarkdownWriter outputs a Markdown scan report.
type MarkdownWriter struct {
	// Now overrides the report timestamp in tests.
	Now func() time.Time
}

func (m *MarkdownWriter) Write(w io.Writer, report *scan.Report) error {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	ew := &errWriter{w: w}

	ew.println("# Lumen Code Scan Report")
	ew.printf("*Generated on: %s*\n\n", now().Format("2006-01-02 15:04:05"))

	ew.println("## Summary")
	ew.printf("- **Provider**: %s (%s)\n", report.Provider, report.Model)
	ew.printf("- **Files Scanned**: %d\n", report.Stats.FilesScanned)
	ew.printf("- **Checks Run**: %d\n", report.Stats.Units)
	ew.printf("- **Total Findings**: %d\n", report.Stats.TotalFindings)
	if report.Stats.Failures > 0 {
		ew.printf("- **Checks Without a Usable Answer**: %d\n", report.Stats.Failures)
	}
	ew.println("")

	for _, file := range report.Files {
		ew.printf("## %s\n\n", file.Path)
		for _, cat := range file.Categories {
			ew.printf("### %s\n\n", titleCase(cat.Category))
			for _, e := range cat.Entries {
				ew.printf("#### %s%s\n\n", e.Subcategory, lineRange(e))
				switch {
				case e.Error != "":
					ew.printf("> Analysis unavailable: %s\n\n", e.Error)
				case e.NoIssues:
					ew.println("No issues found.\n")
				case strings.TrimSpace(e.FindingsText) != "":
					ew.printf("%s\n\n", strings.TrimSpace(e.FindingsText))
				default:
					ew.println("No output.\n")
				}
			}
		}
	}

	if len(report.TooLarge) > 0 {
		ew.println("## Skipped")
		for _, tl := range report.TooLarge {
			ew.printf("- `%s`: %d estimated tokens exceeds the %d limit\n",
				tl.Unit.Path, tl.EstimatedTokens, tl.Limit)
		}
		ew.println("")
	}

	ew.printf("---\n*%d/%d batches succeeded in %dms*\n",
		report.Stats.Completed, report.Stats.Batches, report.Timing.TotalMs)
	return ew.err
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
