package scan

// Entry is one subcategory's outcome for a file, as exposed to reporting.
type Entry struct {
	Subcategory  string   `json:"subcategory"`
	StartLine    int      `json:"start_line,omitempty"`
	EndLine      int      `json:"end_line,omitempty"`
	FindingsText string   `json:"findings_text"`
	Findings     []string `json:"findings,omitempty"`
	ParsedOK     bool     `json:"parsed_ok"`
	NoIssues     bool     `json:"no_issues"`
	Confidence   float64  `json:"confidence"`
	Error        string   `json:"error,omitempty"`
}

// CategoryResult groups a file's entries under one analysis category.
type CategoryResult struct {
	Category string  `json:"category"`
	Entries  []Entry `json:"entries"`
}

// FileResult holds every analysis outcome for one scanned file.
type FileResult struct {
	Path       string           `json:"path"`
	Language   string           `json:"language"`
	Categories []CategoryResult `json:"categories"`
}

// Stats summarizes a scan run.
type Stats struct {
	FilesScanned  int `json:"files_scanned"`
	Units         int `json:"units"`
	Batches       int `json:"batches"`
	Completed     int `json:"completed_batches"`
	FailedBatches int `json:"failed_batches"`
	TooLarge      int `json:"too_large"`
	ParsedOK      int `json:"parsed_ok"`
	Failures      int `json:"failures"`
	TotalFindings int `json:"total_findings"`
}

// Timing contains performance metrics.
type Timing struct {
	LLMMs   int64 `json:"llm_ms"`
	TotalMs int64 `json:"total_ms"`
}

// Report is the top-level scan output: an ordered mapping of
// file -> category -> entries, plus run metadata.
type Report struct {
	Tool     string         `json:"tool"`
	Version  string         `json:"version"`
	RunID    string         `json:"run_id"`
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Root     string         `json:"root"`
	Files    []FileResult   `json:"files"`
	TooLarge []TooLargeUnit `json:"too_large,omitempty"`
	Stats    Stats          `json:"stats"`
	Timing   Timing         `json:"timing"`
}

// Aggregator collects check results and regroups them into stable scan
// order. It is written to by exactly one goroutine (the engine's collector);
// it deliberately carries no lock.
type Aggregator struct {
	units   []CheckUnit
	results map[string]CheckResult
}

// NewAggregator records the scan order that the report will follow.
func NewAggregator(units []CheckUnit) *Aggregator {
	return &Aggregator{
		units:   units,
		results: make(map[string]CheckResult, len(units)),
	}
}

// Add records results. A result for an unknown or already-seen check ID is
// ignored; the first result per unit wins.
func (a *Aggregator) Add(results ...CheckResult) {
	for _, r := range results {
		if _, seen := a.results[r.CheckID]; seen {
			continue
		}
		a.results[r.CheckID] = r
	}
}

// Results returns one result per unit in scan order, synthesizing explicit
// failure results for any unit nothing was recorded for. Completion-order
// nondeterminism across batches is erased here.
func (a *Aggregator) Results() []CheckResult {
	out := make([]CheckResult, 0, len(a.units))
	for _, u := range a.units {
		if r, ok := a.results[u.ID]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, failureResult(u, "no result recorded for check"))
	}
	return out
}

// Report groups results by file then category, preserving scan order for
// files, categories within a file, and entries within a category. Failure
// results become explicit entries, never omissions.
func (a *Aggregator) Report() *Report {
	rep := &Report{Tool: "lumen"}

	fileIdx := make(map[string]int)
	catIdx := make(map[string]map[string]int)

	for _, r := range a.Results() {
		u := r.Unit
		fi, ok := fileIdx[u.Path]
		if !ok {
			fi = len(rep.Files)
			fileIdx[u.Path] = fi
			catIdx[u.Path] = make(map[string]int)
			rep.Files = append(rep.Files, FileResult{Path: u.Path, Language: u.Language})
		}
		ci, ok := catIdx[u.Path][u.Category]
		if !ok {
			ci = len(rep.Files[fi].Categories)
			catIdx[u.Path][u.Category] = ci
			rep.Files[fi].Categories = append(rep.Files[fi].Categories, CategoryResult{Category: u.Category})
		}

		entry := Entry{
			Subcategory:  u.Subcategory,
			StartLine:    u.StartLine,
			EndLine:      u.EndLine,
			FindingsText: r.RawText,
			Findings:     r.Findings,
			ParsedOK:     r.ParsedOK,
			NoIssues:     r.NoIssues,
			Confidence:   r.Confidence,
			Error:        r.Err,
		}
		rep.Files[fi].Categories[ci].Entries = append(rep.Files[fi].Categories[ci].Entries, entry)

		rep.Stats.Units++
		if r.ParsedOK {
			rep.Stats.ParsedOK++
		} else {
			rep.Stats.Failures++
		}
		rep.Stats.TotalFindings += len(r.Findings)
	}

	rep.Stats.FilesScanned = len(rep.Files)
	return rep
}
