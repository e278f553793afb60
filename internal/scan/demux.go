package scan

import (
	"strings"
)

// Demultiplexer confidence levels, from strongest to weakest evidence:
// the section header carried the expected sequence number, the section was
// recovered by category/subcategory content matching, or leftover text was
// attributed to an unresolved unit.
const (
	confidenceSequence = 1.0
	confidenceContent  = 0.6
	confidenceLeftover = 0.25
)

const errCouldNotExtract = "response section could not be extracted"

// Demux splits one raw model response back into per-unit results. Sections
// are matched to the batch's units primarily by header sequence number,
// falling back to category/subcategory content matching when headers are
// missing, duplicated, or reordered. Leftover unlabeled sections are
// attributed to the lowest-indexed unresolved units with parsed_ok=false;
// units with no recoverable text get an explicit extraction-failure result.
// Every unit yields exactly one result.
func Demux(raw string, units []CheckUnit) []CheckResult {
	results := make([]CheckResult, len(units))
	resolved := make([]bool, len(units))

	_, sections, terminated := splitResponse(raw)

	lastSection := -1
	lastUnit := -1
	assign := func(unitIdx, sectionIdx int, body string, parsedOK bool, confidence float64, reason string) {
		u := units[unitIdx]
		results[unitIdx] = CheckResult{
			CheckID:    u.ID,
			Unit:       u,
			RawText:    body,
			ParsedOK:   parsedOK,
			Confidence: confidence,
			Err:        reason,
		}
		if parsedOK {
			results[unitIdx].Findings = extractFindings(body)
			results[unitIdx].NoIssues = reportsNoIssues(body)
		}
		resolved[unitIdx] = true
		if sectionIdx > lastSection {
			lastSection = sectionIdx
			lastUnit = unitIdx
		}
	}

	// First pass: sequence numbers from well-formed headers. Duplicate or
	// out-of-range sequences fall through to content matching.
	var leftover []int
	for si, sec := range sections {
		if sec.Known {
			idx := sec.Header.Seq - 1
			if idx >= 0 && idx < len(units) && !resolved[idx] {
				assign(idx, si, sec.Body, true, confidenceSequence, "")
				continue
			}
		}
		leftover = append(leftover, si)
	}

	// Second pass: content matching against still-unresolved units.
	var unmatched []int
	for _, si := range leftover {
		if idx := contentMatch(sections[si], units, resolved); idx >= 0 {
			assign(idx, si, sections[si].Body, true, confidenceContent, "")
			continue
		}
		unmatched = append(unmatched, si)
	}

	// Third pass: remaining unlabeled text goes to the lowest-indexed
	// unresolved units rather than being discarded.
	for _, si := range unmatched {
		idx := lowestUnresolved(resolved)
		if idx < 0 {
			break // extraneous section, tolerated
		}
		body := sections[si].Body
		if sections[si].Label != "" {
			body = strings.TrimSpace(sections[si].Label + "\n" + body)
		}
		assign(idx, si, body, false, confidenceLeftover, errCouldNotExtract)
	}

	// Anything still unresolved gets an explicit failure result.
	for i := range units {
		if !resolved[i] {
			results[i] = failureResult(units[i], errCouldNotExtract)
		}
	}

	// A response without the terminal marker was truncated: the last
	// matched unit keeps its partial text but is downgraded.
	if !terminated && lastUnit >= 0 && results[lastUnit].ParsedOK {
		results[lastUnit].ParsedOK = false
		results[lastUnit].Err = "response truncated before terminal marker"
	}

	return results
}

func lowestUnresolved(resolved []bool) int {
	for i, done := range resolved {
		if !done {
			return i
		}
	}
	return -1
}

// contentMatch finds the unresolved unit whose subcategory (strong signal)
// or category (weak signal) appears in the section's heading material.
// Returns -1 when nothing matches.
func contentMatch(sec Section, units []CheckUnit, resolved []bool) int {
	hay := strings.ToLower(sec.Label)
	if sec.Known {
		hay += " " + strings.ToLower(sec.Header.Category) + " " + strings.ToLower(sec.Header.Subcategory)
	}
	if hay == "" {
		return -1
	}

	best, bestScore := -1, 0
	for i, u := range units {
		if resolved[i] {
			continue
		}
		score := 0
		if sub := strings.ToLower(u.Subcategory); sub != "" && strings.Contains(hay, sub) {
			score = 2
		} else if cat := strings.ToLower(u.Category); cat != "" && strings.Contains(hay, cat) {
			score = 1
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// extractFindings pulls bullet-style findings out of a section body. The
// model is asked for bullet lists but not trusted to produce them, so a
// body with no bullets yields no findings while remaining parsed.
func extractFindings(body string) []string {
	var findings []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			findings = append(findings, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := bulletText(trimmed); ok {
			flush()
			current.WriteString(rest)
			continue
		}
		if current.Len() > 0 && trimmed != "" {
			current.WriteString(" ")
			current.WriteString(trimmed)
		}
	}
	flush()
	return findings
}

func bulletText(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(rest), true
		}
	}
	// Numbered lists: "1. finding"
	for i, r := range line {
		if r >= '0' && r <= '9' {
			continue
		}
		if i > 0 && strings.HasPrefix(line[i:], ". ") {
			return strings.TrimSpace(line[i+2:]), true
		}
		break
	}
	return "", false
}

var noIssuePhrases = []string{
	"no issues",
	"no vulnerabilities",
	"no problems",
	"nothing found",
}

func reportsNoIssues(body string) bool {
	lower := strings.ToLower(body)
	for _, phrase := range noIssuePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
