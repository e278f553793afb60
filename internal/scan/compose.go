package scan

import (
	"fmt"
	"strings"
)

const composePreamble = `You are an expert code analyzer specializing in security, performance, and code quality.

This request contains %d independent analysis tasks. Answer EVERY task, in order.

Protocol:
1. Begin each answer with the task's header line, copied exactly as given:
   ## ANALYSIS <n>: <CATEGORY>: <Subcategory>
2. Under the header, report your findings as a bullet list. Reference line numbers where possible.
3. If a task surfaces nothing, state explicitly that no issues were found.
4. Do not add tasks, skip tasks, or merge answers.
5. After the final answer, write this line and nothing else:
   ## END ANALYSIS`

// systemPrompt is sent as the system message alongside every composed batch.
const systemPrompt = "You are an expert code analyzer specializing in security, performance, and code quality."

// SystemPrompt returns the system message for batch analysis calls.
func SystemPrompt() string {
	return systemPrompt
}

// Compose renders the batch into a single prompt: the protocol preamble
// followed by one delimited block per unit, in batch order. It transitions
// the batch to composed.
func Compose(b *Batch) error {
	if len(b.Units) == 0 {
		return fmt.Errorf("composing batch %s: no units", b.ID)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, composePreamble, len(b.Units))
	sb.WriteString("\n")

	for i, u := range b.Units {
		sb.WriteString("\n")
		sb.WriteString(FormatHeader(i+1, u))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "Language: %s\n", u.Language)
		if u.Path != "" {
			if u.EndLine > 0 {
				fmt.Fprintf(&sb, "File: %s (lines %d-%d)\n", u.Path, u.StartLine, u.EndLine)
			} else {
				fmt.Fprintf(&sb, "File: %s\n", u.Path)
			}
		}
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(u.Instruction))
		sb.WriteString("\n\nCODE TO ANALYZE:\n")
		fmt.Fprintf(&sb, "```%s\n%s\n```\n", u.Language, guardSnippet(u.Snippet))
	}

	b.Prompt = sb.String()
	return b.Transition(StatusComposed)
}

// guardSnippet keeps snippet content from colliding with the header
// grammar: a code line that happens to start with "## " at column zero is
// indented by one space, preserving meaning for analysis while making the
// header marker unambiguous.
func guardSnippet(snippet string) string {
	if !strings.Contains(snippet, "## ") {
		return snippet
	}
	lines := strings.Split(snippet, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "## ") {
			lines[i] = " " + line
		}
	}
	return strings.Join(lines, "\n")
}
