// Package funnel orchestrates the tiered resolution chain: capability
// extraction, hybrid index, literal scan. Strategies run in fixed order,
// first success wins unless exhaustive tracing is requested, and every tier
// leaves a trace entry whether attempted or skipped.
package funnel

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phenolab/ontosift/internal/models"
	"github.com/phenolab/ontosift/internal/ranking"
	"github.com/phenolab/ontosift/internal/trace"
	"github.com/phenolab/ontosift/internal/vocab"
)

// Options are per-request knobs.
type Options struct {
	Limit  int
	RunAll bool // attempt every tier and merge, instead of first-success-wins
	Debug  bool // attach the trace to the resolution
}

// Config holds funnel-level policy. Zero timeouts mean no per-tier deadline
// beyond the request context.
type Config struct {
	AgentTimeout    time.Duration
	IndexTimeout    time.Duration
	ScanTimeout     time.Duration
	MergePolicy     MergePolicy
	SupplementIndex bool // after agent success, still query the index for vocabulary-only candidates
}

// Resolution is one completed funnel pass. The funnel never fails past its
// own boundary: tier errors are folded into the trace and the outcome.
type Resolution struct {
	Query         string                 `json:"query"`
	QuerySent     string                 `json:"query_sent"`
	Outcome       models.Outcome         `json:"outcome"`
	Results       []*models.RankedResult `json:"results"`
	Terms         []string               `json:"extracted_terms,omitempty"`
	AgentResponse string                 `json:"response,omitempty"`
	ElapsedMS     int64                  `json:"elapsed_ms"`
	Trace         *models.Trace          `json:"debug,omitempty"`
}

type tierSlot struct {
	name models.Strategy
	impl Strategy // nil when the tier is disabled
}

// Funnel sequences the strategy chain. Safe for concurrent use; all
// per-request state lives in the Resolution.
type Funnel struct {
	slots  []tierSlot
	vocab  *vocab.Store
	ranker *ranking.Ranker
	cfg    Config
	logger *zap.Logger
}

// New assembles the funnel. A nil tier is treated as disabled by
// configuration and skipped with a trace entry. store may be nil only when
// the scan tier is nil too; it supplies concept details for ranked results.
func New(agentTier, indexTier, scanTier Strategy, store *vocab.Store, ranker *ranking.Ranker, cfg Config, logger *zap.Logger) *Funnel {
	return &Funnel{
		slots: []tierSlot{
			{name: models.StrategyAgent, impl: agentTier},
			{name: models.StrategyIndex, impl: indexTier},
			{name: models.StrategyScan, impl: scanTier},
		},
		vocab:  store,
		ranker: ranker,
		cfg:    cfg,
		logger: logger,
	}
}

// Run executes the chain for one query and returns the full resolution.
func (f *Funnel) Run(ctx context.Context, raw string, opts Options) *Resolution {
	start := time.Now()
	trimmed := strings.TrimSpace(raw)
	res := &Resolution{Query: trimmed, Results: []*models.RankedResult{}}

	if trimmed == "" {
		res.Outcome = models.OutcomeEmptyQuery
		if opts.Debug {
			tr := trace.NewCollector().Snapshot()
			res.Trace = &tr
		}
		res.ElapsedMS = time.Since(start).Milliseconds()
		return res
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	req := &Request{Raw: trimmed, Sent: models.PrepareQuery(raw), Limit: limit}
	res.QuerySent = req.Sent

	collector := trace.NewCollector()
	var collected []*models.Candidate
	var winner models.Strategy

	for _, slot := range f.slots {
		if slot.impl == nil {
			collector.Skip(slot.name, "disabled by configuration")
			continue
		}
		if ctx.Err() != nil {
			collector.Skip(slot.name, "request cancelled")
			continue
		}
		if winner != "" && !opts.RunAll && !f.supplements(slot.name, winner) {
			collector.Skip(slot.name, "earlier strategy succeeded")
			continue
		}

		attempt, elapsed, err := f.attempt(ctx, slot, req)
		var wireReq *models.TraceRequest
		var wireResp *models.TraceResponse
		var attachment []byte
		if attempt != nil {
			wireReq = attempt.Request
			wireResp = attempt.Response
			attachment = attempt.Attachment
		}
		collector.Record(slot.name, wireReq, wireResp, err, elapsed, attachment)

		if err != nil {
			f.logger.Warn("strategy failed, falling through",
				zap.String("strategy", string(slot.name)),
				zap.String("kind", string(classify(err))),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			continue
		}
		if slot.name == models.StrategyAgent {
			res.Terms = attempt.Terms
			res.AgentResponse = attempt.RawText
		}
		if len(attempt.Candidates) == 0 {
			continue
		}
		collected = append(collected, attempt.Candidates...)
		if winner == "" {
			winner = slot.name
		}
	}

	merged := Merge(collected, f.cfg.MergePolicy)
	var lookup ranking.ConceptLookup
	if f.vocab != nil {
		lookup = f.vocab.Snapshot()
	}
	res.Results = f.ranker.Rank(merged, lookup, limit)

	if winner == "" || len(res.Results) == 0 {
		res.Outcome = models.OutcomeNoneFound
	} else {
		res.Outcome = outcomeFor(winner)
	}
	if opts.Debug {
		tr := collector.Snapshot()
		res.Trace = &tr
	}
	res.ElapsedMS = time.Since(start).Milliseconds()

	f.logger.Debug("resolution complete",
		zap.String("query_sent", req.Sent),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("results", len(res.Results)),
		zap.Int64("elapsed_ms", res.ElapsedMS))
	return res
}

// Resolve is the contract form of Run: ranked results, the full trace, and
// the outcome.
func (f *Funnel) Resolve(ctx context.Context, query string, opts Options) ([]*models.RankedResult, models.Trace, models.Outcome) {
	opts.Debug = true
	res := f.Run(ctx, query, opts)
	var tr models.Trace
	if res.Trace != nil {
		tr = *res.Trace
	}
	return res.Results, tr, res.Outcome
}

// supplements reports whether tier should still run after winner succeeded,
// to add vocabulary-only candidates alongside agent extractions.
func (f *Funnel) supplements(tier, winner models.Strategy) bool {
	return f.cfg.SupplementIndex &&
		tier == models.StrategyIndex &&
		winner == models.StrategyAgent
}

func (f *Funnel) attempt(ctx context.Context, slot tierSlot, req *Request) (*Attempt, time.Duration, error) {
	timeout := f.timeoutFor(slot.name)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	attempt, err := slot.impl.Attempt(ctx, req)
	return attempt, time.Since(start), err
}

func (f *Funnel) timeoutFor(name models.Strategy) time.Duration {
	switch name {
	case models.StrategyAgent:
		return f.cfg.AgentTimeout
	case models.StrategyIndex:
		return f.cfg.IndexTimeout
	case models.StrategyScan:
		return f.cfg.ScanTimeout
	}
	return 0
}

func outcomeFor(winner models.Strategy) models.Outcome {
	switch winner {
	case models.StrategyAgent:
		return models.OutcomeAgent
	case models.StrategyIndex:
		return models.OutcomeIndex
	case models.StrategyScan:
		return models.OutcomeScan
	}
	return models.OutcomeNoneFound
}
