package funnel

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/phenolab/ontosift/internal/index"
	"github.com/phenolab/ontosift/internal/models"
	"github.com/phenolab/ontosift/internal/ranking"
)

type fakeTier struct {
	name    models.Strategy
	attempt func(ctx context.Context, req *Request) (*Attempt, error)
	calls   int
}

func (f *fakeTier) Name() models.Strategy { return f.name }

func (f *fakeTier) Attempt(ctx context.Context, req *Request) (*Attempt, error) {
	f.calls++
	return f.attempt(ctx, req)
}

func tierReturning(name models.Strategy, candidates ...*models.Candidate) *fakeTier {
	return &fakeTier{name: name, attempt: func(_ context.Context, _ *Request) (*Attempt, error) {
		return &Attempt{Candidates: candidates}, nil
	}}
}

func tierFailing(name models.Strategy, err error) *fakeTier {
	return &fakeTier{name: name, attempt: func(_ context.Context, _ *Request) (*Attempt, error) {
		return &Attempt{}, err
	}}
}

func newTestFunnel(agentTier, indexTier, scanTier Strategy, cfg Config) *Funnel {
	return New(agentTier, indexTier, scanTier, nil, ranking.NewRanker(nil, nil), cfg, zap.NewNop())
}

func cand(id string, raw float64, source models.Strategy) *models.Candidate {
	return &models.Candidate{ConceptID: id, Matched: "q", RawScore: raw, Source: source, Hits: 1}
}

func TestEmptyQuery(t *testing.T) {
	f := newTestFunnel(tierReturning(models.StrategyAgent), nil, nil, Config{})
	results, tr, outcome := f.Resolve(context.Background(), "   \t ", Options{})
	if outcome != models.OutcomeEmptyQuery {
		t.Errorf("outcome: got %s, want %s", outcome, models.OutcomeEmptyQuery)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if len(tr.Entries) != 0 {
		t.Errorf("expected empty trace, got %d entries", len(tr.Entries))
	}
}

func TestFirstSuccessWins(t *testing.T) {
	agentTier := tierReturning(models.StrategyAgent, cand("X:01", 0.9, models.StrategyAgent))
	indexTier := tierReturning(models.StrategyIndex, cand("X:02", 0.9, models.StrategyIndex))
	scanTier := tierReturning(models.StrategyScan, cand("X:03", 3.0, models.StrategyScan))
	f := newTestFunnel(agentTier, indexTier, scanTier, Config{})

	res := f.Run(context.Background(), "seizures", Options{Debug: true})
	if res.Outcome != models.OutcomeAgent {
		t.Errorf("outcome: got %s", res.Outcome)
	}
	if indexTier.calls != 0 || scanTier.calls != 0 {
		t.Errorf("later tiers should be skipped: index=%d scan=%d", indexTier.calls, scanTier.calls)
	}
	if len(res.Trace.Entries) != 3 {
		t.Fatalf("expected 3 trace entries, got %d", len(res.Trace.Entries))
	}
	for _, e := range res.Trace.Entries[1:] {
		if e.Skipped == nil || e.Skipped.Reason != "earlier strategy succeeded" {
			t.Errorf("expected skip marker on %s: %+v", e.Strategy, e)
		}
	}
}

func TestFallbackChain(t *testing.T) {
	agentTier := tierFailing(models.StrategyAgent, errors.New("model unreachable"))
	indexTier := tierReturning(models.StrategyIndex) // zero hits, valid
	scanTier := tierReturning(models.StrategyScan, cand("X:01", 2.0, models.StrategyScan))
	f := newTestFunnel(agentTier, indexTier, scanTier, Config{})

	res := f.Run(context.Background(), "obesity", Options{Debug: true})
	if res.Outcome != models.OutcomeScan {
		t.Errorf("outcome: got %s, want %s", res.Outcome, models.OutcomeScan)
	}
	if len(res.Results) != 1 || res.Results[0].ID != "X:01" {
		t.Errorf("unexpected results: %+v", res.Results)
	}
	entries := res.Trace.Entries
	if entries[0].Error == "" {
		t.Error("agent error missing from trace")
	}
	if entries[1].Error != "" || entries[1].Skipped != nil {
		t.Errorf("index zero-hit attempt should be a clean entry: %+v", entries[1])
	}
}

func TestAllTiersExhausted(t *testing.T) {
	// Agent disabled, index erroring, scan empty: successful-but-empty
	// response, never a failure.
	indexTier := tierFailing(models.StrategyIndex, index.ErrUnavailable)
	scanTier := tierReturning(models.StrategyScan)
	f := newTestFunnel(nil, indexTier, scanTier, Config{})

	res := f.Run(context.Background(), "no such finding", Options{Debug: true})
	if res.Outcome != models.OutcomeNoneFound {
		t.Errorf("outcome: got %s, want %s", res.Outcome, models.OutcomeNoneFound)
	}
	if len(res.Results) != 0 {
		t.Errorf("expected empty results, got %d", len(res.Results))
	}

	entries := res.Trace.Entries
	if len(entries) != 3 {
		t.Fatalf("expected 3 trace entries, got %d", len(entries))
	}
	if entries[0].Strategy != models.StrategyAgent || entries[0].Skipped == nil ||
		entries[0].Skipped.Reason != "disabled by configuration" {
		t.Errorf("agent entry: %+v", entries[0])
	}
	if entries[1].Strategy != models.StrategyIndex || entries[1].Error == "" {
		t.Errorf("index entry: %+v", entries[1])
	}
	if entries[2].Strategy != models.StrategyScan || entries[2].Error != "" || entries[2].Skipped != nil {
		t.Errorf("scan entry: %+v", entries[2])
	}
}

func TestTraceOrderFixed(t *testing.T) {
	f := newTestFunnel(nil, nil, tierReturning(models.StrategyScan), Config{})
	_, tr, _ := f.Resolve(context.Background(), "anything", Options{})
	want := []models.Strategy{models.StrategyAgent, models.StrategyIndex, models.StrategyScan}
	if len(tr.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(tr.Entries))
	}
	for i, name := range want {
		if tr.Entries[i].Strategy != name {
			t.Errorf("entry %d: got %s, want %s", i, tr.Entries[i].Strategy, name)
		}
	}
}

func TestRunAllMergesAcrossTiers(t *testing.T) {
	agentTier := tierReturning(models.StrategyAgent, cand("X:01", 0.9, models.StrategyAgent))
	indexTier := tierReturning(models.StrategyIndex,
		cand("X:01", 0.4, models.StrategyIndex),
		cand("X:02", 0.8, models.StrategyIndex))
	scanTier := tierReturning(models.StrategyScan, cand("X:01", 0.5, models.StrategyScan))
	f := newTestFunnel(agentTier, indexTier, scanTier, Config{MergePolicy: MergeMax})

	res := f.Run(context.Background(), "seizures", Options{RunAll: true})
	if res.Outcome != models.OutcomeAgent {
		t.Errorf("outcome should reflect first successful tier, got %s", res.Outcome)
	}
	if len(res.Results) != 2 {
		t.Fatalf("expected deduplicated results, got %d", len(res.Results))
	}
	if res.Results[0].ID != "X:01" || res.Results[0].RawScore != 0.9 {
		t.Errorf("max merge across tiers wrong: %+v", res.Results[0])
	}
	if scanTier.calls != 1 {
		t.Errorf("run_all should attempt every tier, scan calls = %d", scanTier.calls)
	}
}

func TestAgentZeroCandidatesFallsThrough(t *testing.T) {
	agentTier := &fakeTier{name: models.StrategyAgent, attempt: func(_ context.Context, _ *Request) (*Attempt, error) {
		return &Attempt{Terms: []string{"Seizure"}, RawText: "1. Seizure"}, nil
	}}
	indexTier := tierReturning(models.StrategyIndex, cand("X:01", 0.7, models.StrategyIndex))
	f := newTestFunnel(agentTier, indexTier, nil, Config{})

	res := f.Run(context.Background(), "seizures", Options{})
	if res.Outcome != models.OutcomeIndex {
		t.Errorf("outcome: got %s, want %s", res.Outcome, models.OutcomeIndex)
	}
	if len(res.Terms) != 1 || res.AgentResponse == "" {
		t.Errorf("agent extraction should be preserved on fall-through: %+v", res)
	}
}

func TestSupplementIndexAfterAgent(t *testing.T) {
	agentTier := tierReturning(models.StrategyAgent, cand("X:01", 0.9, models.StrategyAgent))
	indexTier := tierReturning(models.StrategyIndex, cand("X:02", 0.6, models.StrategyIndex))
	scanTier := tierReturning(models.StrategyScan, cand("X:03", 1.0, models.StrategyScan))
	f := newTestFunnel(agentTier, indexTier, scanTier, Config{SupplementIndex: true})

	res := f.Run(context.Background(), "seizures", Options{})
	if indexTier.calls != 1 {
		t.Error("index should run as supplement after agent success")
	}
	if scanTier.calls != 0 {
		t.Error("scan should still be skipped")
	}
	if len(res.Results) != 2 {
		t.Errorf("expected agent + supplemental candidates, got %d", len(res.Results))
	}
	if res.Outcome != models.OutcomeAgent {
		t.Errorf("outcome should stay agent, got %s", res.Outcome)
	}
}

func TestTierTimeoutFallsThrough(t *testing.T) {
	agentTier := &fakeTier{name: models.StrategyAgent, attempt: func(ctx context.Context, _ *Request) (*Attempt, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	scanTier := tierReturning(models.StrategyScan, cand("X:01", 2.0, models.StrategyScan))
	f := newTestFunnel(agentTier, nil, scanTier, Config{AgentTimeout: 10 * time.Millisecond})

	res := f.Run(context.Background(), "seizures", Options{Debug: true})
	if res.Outcome != models.OutcomeScan {
		t.Errorf("outcome: got %s, want %s", res.Outcome, models.OutcomeScan)
	}
	if res.Trace.Entries[0].Error == "" {
		t.Error("timeout should be recorded on the agent entry")
	}
}

func TestCancelledRequestSkipsTiers(t *testing.T) {
	scanTier := tierReturning(models.StrategyScan, cand("X:01", 2.0, models.StrategyScan))
	f := newTestFunnel(nil, nil, scanTier, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := f.Run(ctx, "seizures", Options{Debug: true})
	if res.Outcome != models.OutcomeNoneFound {
		t.Errorf("outcome: got %s", res.Outcome)
	}
	if scanTier.calls != 0 {
		t.Error("cancelled request must not attempt tiers")
	}
	last := res.Trace.Entries[2]
	if last.Skipped == nil || last.Skipped.Reason != "request cancelled" {
		t.Errorf("expected cancellation skip marker: %+v", last)
	}
}

func TestDeterministicResults(t *testing.T) {
	scanTier := tierReturning(models.StrategyScan,
		cand("X:03", 2.0, models.StrategyScan),
		cand("X:01", 2.0, models.StrategyScan),
		cand("X:02", 3.0, models.StrategyScan))
	f := newTestFunnel(nil, nil, scanTier, Config{})

	first := f.Run(context.Background(), "obesity", Options{})
	second := f.Run(context.Background(), "obesity", Options{})
	if !reflect.DeepEqual(first.Results, second.Results) {
		t.Errorf("identical queries must produce identical results:\n%+v\n%+v", first.Results, second.Results)
	}
	if first.Results[0].ID != "X:02" || first.Results[1].ID != "X:01" {
		t.Errorf("ordering wrong: %+v", first.Results)
	}
}
