package scan

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lumenscan/lumen/internal/token"
)

// unitWithCost builds a unit whose snippet estimates to exactly cost tokens
// under the default 4-chars-per-token estimator.
func unitWithCost(id string, cost int) CheckUnit {
	return CheckUnit{
		ID:          id,
		Path:        "app.py",
		Category:    "security",
		Subcategory: "SQL Injection",
		Snippet:     strings.Repeat("x", cost*4),
	}
}

func testPlanner(budget, overhead int) Planner {
	return Planner{Estimator: token.CharEstimator{}, Budget: budget, Overhead: overhead}
}

func TestPlan_Empty(t *testing.T) {
	plan := testPlanner(1000, 200).Plan(nil)
	if len(plan.Batches) != 0 || len(plan.TooLarge) != 0 {
		t.Errorf("empty input: batches=%d tooLarge=%d, want 0/0", len(plan.Batches), len(plan.TooLarge))
	}
}

func TestPlan_FirstFitExample(t *testing.T) {
	// B=1000, O=200, three units costing 400 each: the first two fill
	// batch 1 (800 <= 800), the third goes alone into batch 2.
	units := []CheckUnit{
		unitWithCost("u1", 400),
		unitWithCost("u2", 400),
		unitWithCost("u3", 400),
	}
	plan := testPlanner(1000, 200).Plan(units)

	if len(plan.Batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(plan.Batches))
	}
	if n := len(plan.Batches[0].Units); n != 2 {
		t.Errorf("batch 0 has %d units, want 2", n)
	}
	if n := len(plan.Batches[1].Units); n != 1 {
		t.Errorf("batch 1 has %d units, want 1", n)
	}
	if plan.Batches[1].Units[0].ID != "u3" {
		t.Errorf("batch 1 unit = %s, want u3", plan.Batches[1].Units[0].ID)
	}
}

func TestPlan_PartitionsInputExactlyOnce(t *testing.T) {
	var units []CheckUnit
	for i := 0; i < 57; i++ {
		units = append(units, unitWithCost(fmt.Sprintf("u%d", i), 50+i%7*30))
	}
	plan := testPlanner(800, 100).Plan(units)

	seen := make(map[string]int)
	var order []string
	for _, b := range plan.Batches {
		for _, u := range b.Units {
			seen[u.ID]++
			order = append(order, u.ID)
		}
	}
	for _, tl := range plan.TooLarge {
		seen[tl.Unit.ID]++
	}
	if len(seen) != len(units) {
		t.Fatalf("covered %d units, want %d", len(seen), len(units))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("unit %s appears %d times", id, n)
		}
	}
	// Batched units keep arrival order.
	for i := 1; i < len(order); i++ {
		var a, b int
		fmt.Sscanf(order[i-1], "u%d", &a)
		fmt.Sscanf(order[i], "u%d", &b)
		if b < a {
			t.Fatalf("order violated: %s before %s", order[i-1], order[i])
		}
	}
}

func TestPlan_BudgetRespectedByConstruction(t *testing.T) {
	var units []CheckUnit
	for i := 0; i < 40; i++ {
		units = append(units, unitWithCost(fmt.Sprintf("u%d", i), 90+i%5*40))
	}
	p := testPlanner(700, 150)
	plan := p.Plan(units)
	for _, b := range plan.Batches {
		sum := 0
		for _, u := range b.Units {
			sum += p.UnitCost(u)
		}
		if sum+p.Overhead > p.Budget {
			t.Errorf("batch %d: cost %d + overhead %d exceeds budget %d", b.Seq, sum, p.Overhead, p.Budget)
		}
		if b.EstimatedTokens != sum+p.Overhead {
			t.Errorf("batch %d: EstimatedTokens = %d, want %d", b.Seq, b.EstimatedTokens, sum+p.Overhead)
		}
	}
}

func TestPlan_TooLargeUnitReported(t *testing.T) {
	units := []CheckUnit{
		unitWithCost("small", 100),
		unitWithCost("huge", 2000),
		unitWithCost("small2", 100),
	}
	plan := testPlanner(1000, 200).Plan(units)

	if len(plan.TooLarge) != 1 || plan.TooLarge[0].Unit.ID != "huge" {
		t.Fatalf("TooLarge = %+v, want exactly [huge]", plan.TooLarge)
	}
	if got := plan.TooLarge[0].EstimatedTokens; got != 2000 {
		t.Errorf("TooLarge estimate = %d, want 2000", got)
	}
	if got := plan.TooLarge[0].Limit; got != 800 {
		t.Errorf("TooLarge limit = %d, want 800", got)
	}
	if len(plan.Batches) != 1 || len(plan.Batches[0].Units) != 2 {
		t.Errorf("remaining units not packed together: %+v", plan.Batches)
	}
}

func TestPlan_InstructionCountsTowardCost(t *testing.T) {
	u := CheckUnit{
		ID:          "u1",
		Instruction: strings.Repeat("i", 400), // 100 tokens
		Snippet:     strings.Repeat("s", 400), // 100 tokens
	}
	p := testPlanner(1000, 0)
	if got := p.UnitCost(u); got != 200 {
		t.Errorf("UnitCost = %d, want 200", got)
	}
}

func TestPlan_StatusStartsPlanned(t *testing.T) {
	plan := testPlanner(1000, 200).Plan([]CheckUnit{unitWithCost("u1", 100)})
	if len(plan.Batches) != 1 {
		t.Fatal("expected one batch")
	}
	b := plan.Batches[0]
	if b.Status != StatusPlanned {
		t.Errorf("status = %s, want planned", b.Status)
	}
	if b.ID == "" {
		t.Error("batch ID is empty")
	}
}
