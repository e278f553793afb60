package catalog

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File is one discovered source file, tagged with the repository language
// its templates come from.
type File struct {
	Path     string // relative to the scan root, slash-separated
	Language string
}

// languageForExt maps supported file extensions to repository languages.
var languageForExt = map[string]string{
	".py":    "python",
	".sql":   "sql",
	".pgsql": "sql",
	".tsql":  "sql",
	".plsql": "sql",
	".go":    "go",
	".js":    "javascript",
	".ts":    "javascript",
}

// defaultExcludes are directory names never descended into.
var defaultExcludes = []string{
	".git", "node_modules", "vendor", "venv", ".venv", "__pycache__",
	"dist", "build", ".idea", ".vscode",
}

// DiscoverOptions tunes file discovery.
type DiscoverOptions struct {
	Include []string // glob patterns; non-empty means only matching paths
	Exclude []string // glob patterns to skip, additive to .scanignore
}

// Discover walks root for supported source files, honoring .scanignore glob
// patterns at the root, default directory exclusions, and the include and
// exclude options. Results are in deterministic walk order (lexical).
func Discover(root string, opts DiscoverOptions) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}

	// A file root never has a .scanignore of its own; reading one from
	// inside it would fail with ENOTDIR, so handle the file case first.
	if !info.IsDir() {
		lang, ok := languageForExt[strings.ToLower(filepath.Ext(root))]
		if !ok {
			return nil, fmt.Errorf("unsupported file type: %s", root)
		}
		return []File{{Path: filepath.Base(root), Language: lang}}, nil
	}

	ignore, err := loadScanIgnore(root)
	if err != nil {
		return nil, err
	}
	ignore = append(ignore, opts.Exclude...)

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if isExcludedDir(d.Name()) || matchesAny(ignore, rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		lang, ok := languageForExt[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		if matchesAny(ignore, rel, false) {
			return nil
		}
		if len(opts.Include) > 0 && !matchesAny(opts.Include, rel, false) {
			return nil
		}
		files = append(files, File{Path: rel, Language: lang})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// loadScanIgnore reads glob patterns from .scanignore at the scan root.
// Blank lines and # comments are skipped. A missing file is not an error.
func loadScanIgnore(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, ".scanignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading .scanignore: %w", err)
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, sc.Err()
}

func isExcludedDir(name string) bool {
	for _, d := range defaultExcludes {
		if name == d {
			return true
		}
	}
	return false
}

// matchesAny reports whether any pattern matches the relative path, its base
// name, or (for directory checks) a trailing-slash form like "docs/".
func matchesAny(patterns []string, rel string, isDir bool) bool {
	base := filepath.Base(rel)
	for _, p := range patterns {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if !isDir && strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}
