package scan

import "fmt"

// CheckUnit is one independent analysis request: a code snippet paired with
// a category/subcategory prompt template. Units are immutable once created.
type CheckUnit struct {
	ID           string `json:"id"`
	Path         string `json:"path"`
	StartLine    int    `json:"start_line,omitempty"`
	EndLine      int    `json:"end_line,omitempty"`
	Language     string `json:"language"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
	Instruction  string `json:"-"`
	Snippet      string `json:"-"`
	OutputFormat string `json:"-"`
}

// BatchStatus tracks a batch through its lifecycle.
type BatchStatus int

const (
	StatusPlanned BatchStatus = iota
	StatusComposed
	StatusSent
	StatusRetrying
	StatusCompleted
	StatusFailed
)

func (s BatchStatus) String() string {
	switch s {
	case StatusPlanned:
		return "planned"
	case StatusComposed:
		return "composed"
	case StatusSent:
		return "sent"
	case StatusRetrying:
		return "retrying"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("BatchStatus(%d)", int(s))
	}
}

// Batch is a group of check units composed into a single model call.
type Batch struct {
	ID              string
	Seq             int
	Units           []CheckUnit
	EstimatedTokens int
	Prompt          string
	Status          BatchStatus
	Attempts        int
	FailureReason   string
}

// validTransitions encodes the batch lifecycle:
// planned -> composed -> sent -> {completed, retrying, failed},
// retrying -> {sent, failed}. A batch may fail before dispatch (compose
// error, deadline hit while queued), so failed is reachable from every
// non-terminal state.
var validTransitions = map[BatchStatus][]BatchStatus{
	StatusPlanned:  {StatusComposed, StatusFailed},
	StatusComposed: {StatusSent, StatusFailed},
	StatusSent:     {StatusCompleted, StatusRetrying, StatusFailed},
	StatusRetrying: {StatusSent, StatusFailed},
}

// Transition moves the batch to the next status, rejecting moves the
// lifecycle does not allow. Entering retrying increments the attempt count.
func (b *Batch) Transition(next BatchStatus) error {
	for _, allowed := range validTransitions[b.Status] {
		if next == allowed {
			if next == StatusRetrying {
				b.Attempts++
			}
			b.Status = next
			return nil
		}
	}
	return fmt.Errorf("invalid batch transition: %s -> %s", b.Status, next)
}

// CheckResult is the outcome of exactly one check unit. Every unit yields
// exactly one result, including synthesized failure results.
type CheckResult struct {
	CheckID    string
	Unit       CheckUnit
	RawText    string
	ParsedOK   bool
	NoIssues   bool
	Findings   []string
	Confidence float64
	Err        string
}

// failureResult synthesizes an explicit failure result for a unit whose
// answer could not be obtained or extracted.
func failureResult(u CheckUnit, reason string) CheckResult {
	return CheckResult{
		CheckID:    u.ID,
		Unit:       u,
		ParsedOK:   false,
		Confidence: 0,
		Err:        reason,
	}
}
