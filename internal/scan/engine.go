package scan

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lumenscan/lumen/internal/providers"
	"github.com/lumenscan/lumen/internal/token"
)

// ResponseCache lets the engine skip model calls whose prompt was answered
// recently. Implementations hash the prompt themselves.
type ResponseCache interface {
	Get(prompt string) (string, bool)
	Put(prompt, response string) error
}

// Options configures a scan engine.
type Options struct {
	TokenBudget         int           // hard budget B per model call
	BatchOverhead       int           // fixed overhead O; 0 means TokenBudget/3
	Concurrency         int           // in-flight batch limit; 0 means 4
	MaxRetries          int           // rate-limit retries per batch; 0 means 3
	MaxTransportRetries int           // other transport retries; 0 means 1
	MaxOutputTokens     int           // response token cap passed to the provider
	Temperature         float64
	Timeout             time.Duration // whole-scan deadline; 0 means none
	RateLimitCooldown   time.Duration // backpressure slot withdrawal; 0 means 15s
	RetryBaseDelay      time.Duration // first backoff step; 0 means 1s
	Estimator           token.Estimator
	Cache               ResponseCache
	Logger              *zap.Logger
}

const (
	defaultTokenBudget = 6000
	defaultConcurrency = 4
	defaultMaxRetries  = 3
	defaultCooldown    = 15 * time.Second
)

// Engine drives a scan: plan, compose, dispatch through a bounded worker
// pool with retry and backpressure, demultiplex, aggregate.
type Engine struct {
	provider providers.Completer
	opts     Options
	log      *zap.Logger
}

// NewEngine creates an engine around an inference provider. Zero option
// fields get working defaults.
func NewEngine(provider providers.Completer, opts Options) *Engine {
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = defaultTokenBudget
	}
	if opts.BatchOverhead <= 0 {
		// The estimator is approximate and the response needs room, so a
		// third of the budget is reserved as overhead plus safety margin.
		opts.BatchOverhead = opts.TokenBudget / 3
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MaxTransportRetries <= 0 {
		opts.MaxTransportRetries = 1
	}
	if opts.RateLimitCooldown <= 0 {
		opts.RateLimitCooldown = defaultCooldown
	}
	if opts.Estimator == nil {
		opts.Estimator = token.CharEstimator{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{provider: provider, opts: opts, log: log}
}

// Run scans the given check units and returns the aggregated report.
// Batch failures are localized: a failed batch degrades only its own units
// and never aborts sibling batches.
func (e *Engine) Run(ctx context.Context, units []CheckUnit) (*Report, error) {
	start := time.Now()
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	planner := Planner{
		Estimator: e.opts.Estimator,
		Budget:    e.opts.TokenBudget,
		Overhead:  e.opts.BatchOverhead,
	}
	plan := planner.Plan(units)
	agg := NewAggregator(units)

	for _, tl := range plan.TooLarge {
		e.log.Warn("check unit exceeds token budget",
			zap.String("check", tl.Unit.ID),
			zap.Int("estimated", tl.EstimatedTokens),
			zap.Int("limit", tl.Limit))
		agg.Add(failureResult(tl.Unit,
			fmt.Sprintf("snippet too large for token budget (estimated %d tokens, limit %d)", tl.EstimatedTokens, tl.Limit)))
	}

	e.log.Info("scan planned",
		zap.Int("units", len(units)),
		zap.Int("batches", len(plan.Batches)),
		zap.Int("too_large", len(plan.TooLarge)),
		zap.Int("budget", e.opts.TokenBudget))

	gt := newGate(e.opts.Concurrency, e.opts.RateLimitCooldown)
	resultCh := make(chan []CheckResult)
	collectorDone := make(chan struct{})
	go func() {
		// Single-writer accumulation: only this goroutine touches agg.
		defer close(collectorDone)
		for rs := range resultCh {
			agg.Add(rs...)
		}
	}()

	var llmMs atomic.Int64
	var g errgroup.Group
	for _, b := range plan.Batches {
		b := b
		g.Go(func() error {
			callStart := time.Now()
			rs := e.runBatch(ctx, b, gt)
			llmMs.Add(time.Since(callStart).Milliseconds())
			resultCh <- rs
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are localized per batch
	close(resultCh)
	<-collectorDone

	rep := agg.Report()
	rep.RunID = uuid.NewString()
	rep.Provider = e.provider.Name()
	rep.TooLarge = plan.TooLarge
	rep.Stats.Batches = len(plan.Batches)
	rep.Stats.TooLarge = len(plan.TooLarge)
	for _, b := range plan.Batches {
		switch b.Status {
		case StatusCompleted:
			rep.Stats.Completed++
		case StatusFailed:
			rep.Stats.FailedBatches++
		}
	}
	rep.Timing.LLMMs = llmMs.Load()
	rep.Timing.TotalMs = time.Since(start).Milliseconds()
	return rep, nil
}

// runBatch carries one batch through its whole lifecycle and always returns
// exactly one result per member unit.
func (e *Engine) runBatch(ctx context.Context, b *Batch, gt *gate) []CheckResult {
	if err := Compose(b); err != nil {
		return e.failBatch(b, fmt.Sprintf("compose: %v", err))
	}

	if e.opts.Cache != nil {
		if cached, ok := e.opts.Cache.Get(b.Prompt); ok {
			e.log.Debug("batch served from cache", zap.String("batch", b.ID))
			_ = b.Transition(StatusSent)
			_ = b.Transition(StatusCompleted)
			return Demux(cached, b.Units)
		}
	}

	if err := gt.acquire(ctx); err != nil {
		return e.failBatch(b, fmt.Sprintf("scan deadline exceeded before dispatch: %v", err))
	}
	defer gt.release()

	if err := b.Transition(StatusSent); err != nil {
		return e.failBatch(b, err.Error())
	}

	retrier := providers.Retrier{
		MaxRateLimitRetries: e.opts.MaxRetries,
		MaxTransportRetries: e.opts.MaxTransportRetries,
		BaseDelay:           e.opts.RetryBaseDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			if providers.IsRateLimit(err) {
				// Shrink pool-wide concurrency, not just this call.
				gt.throttle()
			}
			_ = b.Transition(StatusRetrying)
			e.log.Warn("batch call retrying",
				zap.String("batch", b.ID),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(err))
		},
	}

	var resp providers.CompletionResponse
	err := retrier.Do(ctx, func() error {
		if b.Status == StatusRetrying {
			if terr := b.Transition(StatusSent); terr != nil {
				return terr
			}
		}
		var cerr error
		resp, cerr = e.provider.Complete(ctx, providers.CompletionRequest{
			SystemPrompt: SystemPrompt(),
			UserPrompt:   b.Prompt,
			MaxTokens:    e.opts.MaxOutputTokens,
			Temperature:  e.opts.Temperature,
		})
		return cerr
	})
	if err != nil {
		reason := fmt.Sprintf("analysis failed: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("analysis timed out: %v", err)
		}
		return e.failBatch(b, reason)
	}

	if err := b.Transition(StatusCompleted); err != nil {
		return e.failBatch(b, err.Error())
	}
	if e.opts.Cache != nil {
		if err := e.opts.Cache.Put(b.Prompt, resp.Content); err != nil {
			e.log.Debug("cache write failed", zap.String("batch", b.ID), zap.Error(err))
		}
	}
	e.log.Info("batch completed",
		zap.String("batch", b.ID),
		zap.Int("units", len(b.Units)),
		zap.Int("attempts", b.Attempts),
		zap.Int("tokens_used", resp.TokensUsed))

	return Demux(resp.Content, b.Units)
}

// failBatch marks the batch failed and synthesizes an error result for
// every member unit.
func (e *Engine) failBatch(b *Batch, reason string) []CheckResult {
	b.FailureReason = reason
	_ = b.Transition(StatusFailed)
	e.log.Error("batch failed",
		zap.String("batch", b.ID),
		zap.Int("units", len(b.Units)),
		zap.String("reason", reason))
	out := make([]CheckResult, 0, len(b.Units))
	for _, u := range b.Units {
		out = append(out, failureResult(u, reason))
	}
	return out
}
