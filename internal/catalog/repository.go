package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed prompts_repository.json
var builtinRepository []byte

// Template is one analysis prompt: what to look for in a snippet of a given
// language, category, and subcategory.
type Template struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PromptTemplate string `json:"prompt_template"`
	OutputFormat   string `json:"output_format"`
}

// Metadata describes a prompt repository file.
type Metadata struct {
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Repository holds analysis templates grouped language -> category. The JSON
// layout matches prompts_repository.json so users can supply their own file.
type Repository struct {
	Metadata   Metadata                         `json:"metadata"`
	Categories map[string]map[string][]Template `json:"categories"`
}

// LoadRepository reads a prompt repository from path, or returns the
// built-in repository when path is empty.
func LoadRepository(path string) (*Repository, error) {
	data := builtinRepository
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading prompt repository: %w", err)
		}
	}
	var repo Repository
	if err := json.Unmarshal(data, &repo); err != nil {
		return nil, fmt.Errorf("parsing prompt repository: %w", err)
	}
	if len(repo.Categories) == 0 {
		return nil, fmt.Errorf("prompt repository has no categories")
	}
	return &repo, nil
}

// Languages returns the languages the repository has templates for, sorted.
func (r *Repository) Languages() []string {
	langs := make([]string, 0, len(r.Categories))
	for l := range r.Categories {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// CategoryNames returns the analysis categories available for a language,
// sorted for deterministic expansion order.
func (r *Repository) CategoryNames(language string) []string {
	cats := make([]string, 0, len(r.Categories[language]))
	for c := range r.Categories[language] {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Templates returns the templates for a language and category in repository
// order, or nil when none exist.
func (r *Repository) Templates(language, category string) []Template {
	return r.Categories[language][category]
}

// Instruction renders the template's prompt text for inclusion in a batch.
// Stored templates may carry indentation from the JSON file; each line is
// trimmed so composed prompts stay clean.
func (t Template) Instruction() string {
	lines := strings.Split(t.PromptTemplate, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Filter selects a subset of the repository for a scan. Empty slices mean
// no restriction. Subcategories match template IDs.
type Filter struct {
	Categories    []string
	Subcategories []string
}

func (f Filter) allowsCategory(category string) bool {
	return len(f.Categories) == 0 || contains(f.Categories, category)
}

func (f Filter) allowsTemplate(t Template) bool {
	return len(f.Subcategories) == 0 || contains(f.Subcategories, t.ID)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
