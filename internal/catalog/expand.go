package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/lumenscan/lumen/internal/scan"
	"github.com/lumenscan/lumen/internal/token"
)

const defaultSnippetCeiling = 3000

// Expander turns discovered files into check units by crossing each file
// with the repository templates its language selects.
type Expander struct {
	Repo           *Repository
	Filter         Filter
	Estimator      token.Estimator
	SnippetCeiling int                 // max estimated tokens per snippet; 0 means 3000
	Transform      func(string) string // applied to file content before snippets are cut
	Logger         *zap.Logger
}

// Expand reads each discovered file under root and produces check units in
// stable scan order: file, then category, then subcategory, then chunk.
// Files larger than the snippet ceiling are split into line-ranged chunks so
// no single unit has to exceed the batch token budget.
func (e Expander) Expand(root string, files []File) ([]scan.CheckUnit, error) {
	est := e.Estimator
	if est == nil {
		est = token.CharEstimator{}
	}
	ceiling := e.SnippetCeiling
	if ceiling <= 0 {
		ceiling = defaultSnippetCeiling
	}
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var units []scan.CheckUnit
	for _, f := range files {
		categories := e.Repo.CategoryNames(f.Language)
		if len(categories) == 0 {
			log.Warn("no templates for language, skipping file",
				zap.String("path", f.Path),
				zap.String("language", f.Language))
			continue
		}

		data, err := os.ReadFile(filepath.Join(root, f.Path))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Path, err)
		}
		content := string(data)
		if e.Transform != nil {
			content = e.Transform(content)
		}
		if strings.TrimSpace(content) == "" {
			log.Debug("skipping empty file", zap.String("path", f.Path))
			continue
		}
		chunks := splitChunks(content, ceiling, est)

		for _, category := range categories {
			if !e.Filter.allowsCategory(category) {
				continue
			}
			for _, tmpl := range e.Repo.Templates(f.Language, category) {
				if !e.Filter.allowsTemplate(tmpl) {
					continue
				}
				for _, ch := range chunks {
					units = append(units, scan.CheckUnit{
						ID:           unitID(f.Path, tmpl.ID, ch),
						Path:         f.Path,
						StartLine:    ch.start,
						EndLine:      ch.end,
						Language:     f.Language,
						Category:     category,
						Subcategory:  tmpl.Name,
						Instruction:  tmpl.Instruction(),
						Snippet:      ch.text,
						OutputFormat: tmpl.OutputFormat,
					})
				}
			}
		}
	}
	return units, nil
}

func unitID(path, templateID string, ch chunk) string {
	if ch.start > 0 {
		return fmt.Sprintf("%s:%d-%d:%s", path, ch.start, ch.end, templateID)
	}
	return path + ":" + templateID
}

type chunk struct {
	start int // 1-based line range; 0 means whole file
	end   int
	text  string
}

// splitChunks cuts content on line boundaries so each chunk stays under the
// token ceiling. Content that already fits becomes a single whole-file chunk
// with no line range. A single line exceeding the ceiling still becomes its
// own chunk; the planner rejects it later rather than silently dropping it.
func splitChunks(content string, ceiling int, est token.Estimator) []chunk {
	if est.Estimate(content) <= ceiling {
		return []chunk{{text: content}}
	}

	lines := strings.Split(content, "\n")
	var chunks []chunk
	start := 1
	var buf []string
	used := 0

	flush := func(end int) {
		if len(buf) == 0 {
			return
		}
		chunks = append(chunks, chunk{start: start, end: end, text: strings.Join(buf, "\n")})
		start = end + 1
		buf = buf[:0]
		used = 0
	}

	for i, line := range lines {
		cost := est.Estimate(line + "\n")
		if len(buf) > 0 && used+cost > ceiling {
			flush(i)
		}
		buf = append(buf, line)
		used += cost
	}
	flush(len(lines))
	return chunks
}
