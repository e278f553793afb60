package scan

import (
	"strconv"
	"strings"
)

// The composer and demultiplexer share one header grammar:
//
//	## ANALYSIS <n>: <CATEGORY>: <Subcategory>
//
// immediately followed by the answer body, terminated by the next header or
// end of text. A well-formed response ends with the terminal marker.
const (
	headerPrefix   = "## ANALYSIS "
	terminalMarker = "## END ANALYSIS"
)

// Header is one parsed section header. Seq is 1-based.
type Header struct {
	Seq         int
	Category    string
	Subcategory string
}

// FormatHeader renders the header line for the unit at 1-based sequence seq.
func FormatHeader(seq int, u CheckUnit) string {
	return headerPrefix + strconv.Itoa(seq) + ": " + strings.ToUpper(u.Category) + ": " + u.Subcategory
}

// ParseHeader parses a single line against the header grammar. It returns
// false for anything that is not a well-formed header, including the
// terminal marker.
func ParseHeader(line string) (Header, bool) {
	line = strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(line, headerPrefix)
	if !ok {
		return Header{}, false
	}
	numPart, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return Header{}, false
	}
	seq, err := strconv.Atoi(strings.TrimSpace(numPart))
	if err != nil || seq < 1 {
		return Header{}, false
	}
	category, sub, ok := strings.Cut(rest, ":")
	category = strings.TrimSpace(category)
	sub = strings.TrimSpace(sub)
	if !ok || category == "" || sub == "" {
		return Header{}, false
	}
	return Header{Seq: seq, Category: category, Subcategory: sub}, true
}

// Section is one block of response text. Known sections carry a parsed
// header; unknown sections start with a markdown heading the grammar does
// not recognize (the model improvised a label).
type Section struct {
	Header Header
	Known  bool
	Label  string // raw heading line for unknown sections
	Body   string
}

// splitResponse splits raw model text into a preamble (text before the
// first heading) and an ordered list of sections. Any line beginning with
// "## " opens a new section; the terminal marker closes the final one.
// It also reports whether the terminal marker was present.
func splitResponse(text string) (preamble string, sections []Section, terminated bool) {
	var body strings.Builder
	var current *Section

	flush := func() {
		if current == nil {
			preamble = strings.TrimSpace(body.String())
		} else {
			current.Body = strings.TrimSpace(body.String())
			sections = append(sections, *current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == terminalMarker {
			terminated = true
			break
		}
		if strings.HasPrefix(trimmed, "## ") {
			flush()
			if h, ok := ParseHeader(trimmed); ok {
				current = &Section{Header: h, Known: true}
			} else {
				current = &Section{Label: trimmed}
			}
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()
	return preamble, sections, terminated
}
