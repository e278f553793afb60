package scan

import (
	"github.com/google/uuid"

	"github.com/lumenscan/lumen/internal/token"
)

// TooLargeUnit records a check unit whose own cost exceeds what a single
// batch can carry. Such units are reported, never truncated or dropped.
type TooLargeUnit struct {
	Unit            CheckUnit `json:"unit"`
	EstimatedTokens int       `json:"estimated_tokens"`
	Limit           int       `json:"limit"`
}

// Plan is the planner output: ordered batches covering every unit exactly
// once, plus the units that could not be placed.
type Plan struct {
	Batches  []*Batch
	TooLarge []TooLargeUnit
}

// Planner packs check units into batches under a token budget.
type Planner struct {
	Estimator token.Estimator
	Budget    int // hard token budget B per model call
	Overhead  int // fixed per-batch overhead O (preamble, headers, margin)
}

// UnitCost estimates the token cost a unit contributes to its batch.
func (p Planner) UnitCost(u CheckUnit) int {
	return p.Estimator.Estimate(u.Instruction) + p.Estimator.Estimate(u.Snippet)
}

// Plan packs units into batches with order-preserving first-fit: accumulate
// in arrival order while the running cost plus overhead stays within budget,
// close the batch on overflow and start the next. Arrival order keeps a
// file's checks adjacent, and packing runs in linear time. Empty input
// yields an empty plan.
func (p Planner) Plan(units []CheckUnit) Plan {
	limit := p.Budget - p.Overhead

	var plan Plan
	var current *Batch
	running := 0

	closeCurrent := func() {
		if current != nil {
			current.EstimatedTokens = running + p.Overhead
			plan.Batches = append(plan.Batches, current)
			current = nil
			running = 0
		}
	}

	for _, u := range units {
		cost := p.UnitCost(u)
		if cost > limit {
			plan.TooLarge = append(plan.TooLarge, TooLargeUnit{
				Unit:            u,
				EstimatedTokens: cost,
				Limit:           limit,
			})
			continue
		}
		if current != nil && running+cost > limit {
			closeCurrent()
		}
		if current == nil {
			current = &Batch{
				ID:     uuid.NewString(),
				Seq:    len(plan.Batches),
				Status: StatusPlanned,
			}
		}
		current.Units = append(current.Units, u)
		running += cost
	}
	closeCurrent()

	return plan
}
