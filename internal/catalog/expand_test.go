package catalog

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := LoadRepository("")
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestExpander_CrossesFilesWithTemplates(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.py":     "print(1)\n",
		"schema.sql": "SELECT 1;\n",
	})
	repo := testRepo(t)
	files := []File{
		{Path: "app.py", Language: "python"},
		{Path: "schema.sql", Language: "sql"},
	}

	units, err := Expander{Repo: repo}.Expand(root, files)
	if err != nil {
		t.Fatal(err)
	}

	pyTemplates := len(repo.Templates("python", "performance")) + len(repo.Templates("python", "security"))
	sqlTemplates := len(repo.Templates("sql", "performance")) + len(repo.Templates("sql", "security"))
	if len(units) != pyTemplates+sqlTemplates {
		t.Fatalf("got %d units, want %d", len(units), pyTemplates+sqlTemplates)
	}

	// File order first, categories sorted within a file.
	if units[0].Path != "app.py" || units[0].Category != "performance" {
		t.Errorf("first unit = %s/%s", units[0].Path, units[0].Category)
	}
	last := units[len(units)-1]
	if last.Path != "schema.sql" || last.Category != "security" {
		t.Errorf("last unit = %s/%s", last.Path, last.Category)
	}
	for _, u := range units {
		if u.Instruction == "" || u.Snippet == "" || u.Subcategory == "" {
			t.Errorf("incomplete unit %+v", u)
		}
	}
}

func TestExpander_Filters(t *testing.T) {
	root := writeTree(t, map[string]string{"app.py": "x = 1\n"})
	repo := testRepo(t)
	files := []File{{Path: "app.py", Language: "python"}}

	units, err := Expander{
		Repo:   repo,
		Filter: Filter{Categories: []string{"security"}, Subcategories: []string{"sql-injection"}},
	}.Expand(root, files)
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	if units[0].Category != "security" || units[0].Subcategory != "SQL Injection" {
		t.Errorf("unit = %+v", units[0])
	}
	if units[0].ID != "app.py:sql-injection" {
		t.Errorf("ID = %q", units[0].ID)
	}
}

func TestExpander_ChunksLargeFiles(t *testing.T) {
	// 200 lines of ~40 chars is ~2000 tokens; a 300-token ceiling forces
	// several line-ranged chunks.
	line := strings.Repeat("a", 39)
	content := strings.Repeat(line+"\n", 200)
	root := writeTree(t, map[string]string{"big.py": content})
	repo := testRepo(t)

	units, err := Expander{
		Repo:           repo,
		Filter:         Filter{Subcategories: []string{"sql-injection"}},
		SnippetCeiling: 300,
	}.Expand(root, []File{{Path: "big.py", Language: "python"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(units) < 2 {
		t.Fatalf("got %d units, want chunked file", len(units))
	}

	prevEnd := 0
	for _, u := range units {
		if u.StartLine != prevEnd+1 {
			t.Errorf("chunk %s starts at %d, want %d", u.ID, u.StartLine, prevEnd+1)
		}
		if u.EndLine < u.StartLine {
			t.Errorf("chunk %s has inverted range", u.ID)
		}
		prevEnd = u.EndLine
	}
	var rebuilt []string
	for _, u := range units {
		rebuilt = append(rebuilt, u.Snippet)
	}
	if strings.Join(rebuilt, "\n") != content {
		t.Error("chunks do not reassemble into the original content")
	}
}

func TestExpander_TransformAppliedBeforeSnippets(t *testing.T) {
	root := writeTree(t, map[string]string{"app.py": "key = 'sk-secret'\n"})
	repo := testRepo(t)

	units, err := Expander{
		Repo:      repo,
		Filter:    Filter{Subcategories: []string{"hardcoded-secrets"}},
		Transform: func(s string) string { return strings.ReplaceAll(s, "sk-secret", "[REDACTED]") },
	}.Expand(root, []File{{Path: "app.py", Language: "python"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 || strings.Contains(units[0].Snippet, "sk-secret") {
		t.Errorf("snippet = %q, want redacted", units[0].Snippet)
	}
}

func TestExpander_SkipsUnknownLanguageAndEmptyFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.rb":   "x = 1\n",
		"empty.py": "   \n",
		"ok.py":    "x = 1\n",
	})
	repo := testRepo(t)
	files := []File{
		{Path: "app.rb", Language: "ruby"},
		{Path: "empty.py", Language: "python"},
		{Path: "ok.py", Language: "python"},
	}

	units, err := Expander{
		Repo:   repo,
		Filter: Filter{Subcategories: []string{"sql-injection"}},
		Logger: zap.NewNop(),
	}.Expand(root, files)
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 || units[0].Path != "ok.py" {
		t.Errorf("units = %+v, want only ok.py", units)
	}
}

func TestExpander_MissingFileErrors(t *testing.T) {
	root := writeTree(t, map[string]string{})
	repo := testRepo(t)
	_, err := Expander{Repo: repo}.Expand(root, []File{{Path: "ghost.py", Language: "python"}})
	if err == nil {
		t.Error("missing file should error")
	}
}
