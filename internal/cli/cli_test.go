package cli

import (
	"testing"
)

// resetFlags resets all package-level flag variables to their zero values.
func resetFlags() {
	flagPaths = ""
	flagExclude = ""
	flagProvider = ""
	flagModel = ""
	flagFormat = ""
	flagOut = ""
	flagCategories = ""
	flagSubcategories = ""
	flagPrompts = ""
	flagTokenBudget = 0
	flagConcurrency = 0
	flagMaxRetries = 0
	flagTimeout = 0
	flagNoCache = false
	flagNoRedact = false
	flagFailOnFindings = false
	flagPromptsLanguage = ""
	flagConfig = ""
	flagDebug = false
}

func TestSplitComma(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", nil},
		{"single value", "security", []string{"security"}},
		{"multiple values", "a,b,c", []string{"a", "b", "c"}},
		{"whitespace trimmed", " a , b , c ", []string{"a", "b", "c"}},
		{"empty parts skipped", "a,,b", []string{"a", "b"}},
		{"all empty", ",,,", nil},
		{"glob patterns", "*.py,src/**/*.sql", []string{"*.py", "src/**/*.sql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitComma(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitComma(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitComma(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildOverrides_NoFlags(t *testing.T) {
	resetFlags()
	if m := buildOverrides(); len(m) != 0 {
		t.Errorf("buildOverrides() with no flags = %v, want empty map", m)
	}
}

func TestBuildOverrides_AllFlags(t *testing.T) {
	resetFlags()
	flagProvider = "ollama"
	flagModel = "qwen2.5-coder"
	flagFormat = "json"
	flagCategories = "security"
	flagSubcategories = "sql-injection,dynamic-sql"
	flagPrompts = "prompts.json"
	flagTokenBudget = 4000
	flagConcurrency = 2
	flagMaxRetries = 5
	flagTimeout = 120
	flagPaths = "src/**"
	flagExclude = "vendor/**"

	m := buildOverrides()
	want := map[string]string{
		"provider":           "ollama",
		"model":              "qwen2.5-coder",
		"format":             "json",
		"category_filter":    "security",
		"subcategory_filter": "sql-injection,dynamic-sql",
		"prompts_file":       "prompts.json",
		"token_budget":       "4000",
		"concurrency_limit":  "2",
		"max_retries":        "5",
		"timeout_seconds":    "120",
		"include":            "src/**",
		"exclude":            "vendor/**",
	}
	if len(m) != len(want) {
		t.Fatalf("buildOverrides() = %v, want %v", m, want)
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("overrides[%s] = %q, want %q", k, m[k], v)
		}
	}
}

func TestExitCodesDistinct(t *testing.T) {
	codes := []int{ExitSuccess, ExitFindings, ExitUsageError, ExitAuthError, ExitRuntimeError}
	seen := make(map[int]bool)
	for _, c := range codes {
		if seen[c] {
			t.Fatalf("duplicate exit code %d", c)
		}
		seen[c] = true
	}
}
