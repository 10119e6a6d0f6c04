package funnel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phenolab/ontosift/internal/agent"
	"github.com/phenolab/ontosift/internal/embedding"
	"github.com/phenolab/ontosift/internal/index"
	"github.com/phenolab/ontosift/internal/models"
	"github.com/phenolab/ontosift/internal/scan"
	"github.com/phenolab/ontosift/internal/vocab"
)

// Request is the per-invocation input shared by all strategies.
type Request struct {
	Raw   string // original query, trimmed
	Sent  string // stop-word-stripped form forwarded to retrieval
	Limit int
}

// Attempt is one strategy's outcome. Zero candidates with a nil error is a
// valid attempt; the funnel falls through to the next tier.
type Attempt struct {
	Candidates []*models.Candidate
	Terms      []string
	RawText    string
	Request    *models.TraceRequest
	Response   *models.TraceResponse
	Attachment json.RawMessage
}

// Strategy is one tier of the fallback chain. Reordering tiers is a list
// change in the funnel, not a type change here.
type Strategy interface {
	Name() models.Strategy
	Attempt(ctx context.Context, req *Request) (*Attempt, error)
}

// AgentResolver is the narrow view of the capability-assisted tier. Satisfied
// by *agent.Resolver.
type AgentResolver interface {
	Resolve(ctx context.Context, query string) (*agent.Result, error)
}

// IndexSearcher is the narrow view of the hybrid index tier. Satisfied by
// *index.Client.
type IndexSearcher interface {
	Search(ctx context.Context, term string, vector []float32, limit int) (*index.Result, error)
}

type agentStrategy struct {
	resolver AgentResolver
}

// NewAgentStrategy wraps the capability-assisted resolver as a funnel tier.
func NewAgentStrategy(resolver AgentResolver) Strategy {
	return &agentStrategy{resolver: resolver}
}

func (s *agentStrategy) Name() models.Strategy { return models.StrategyAgent }

/// Attempt sends the raw narrative, not the stop-word-stripped form: the
// model needs the full clinical context to extract findings.
func (s *agentStrategy) Attempt(ctx context.Context, req *Request) (*Attempt, error) {
	res, err := s.resolver.Resolve(ctx, req.Raw)
	if err != nil {
		return nil, err
	}
	return &Attempt{
		Candidates: res.Candidates,
		Terms:      res.Terms,
		RawText:    res.RawText,
		Attachment: res.Attachment,
	}, nil
}

type indexStrategy struct {
	client   IndexSearcher
	embedder embedding.Embedder
}

// NewIndexStrategy wraps the hybrid index client as a funnel tier. embedder
// may be nil; the tier then searches keyword-only.
func NewIndexStrategy(client IndexSearcher, embedder embedding.Embedder) Strategy {
	return &indexStrategy{client: client, embedder: embedder}
}

func (s *indexStrategy) Name() models.Strategy { return models.StrategyIndex }

func (s *indexStrategy) Attempt(ctx context.Context, req *Request) (*Attempt, error) {
	var vector []float32
	if s.embedder != nil {
		// Embedding failure degrades to keyword-only rather than losing
		// the whole tier.
		if v, err := s.embedder.Embed(ctx, req.Sent); err == nil {
			vector = v
		}
	}
	res, err := s.client.Search(ctx, req.Sent, vector, req.Limit)
	attempt := &Attempt{}
	if res != nil {
		attempt.Candidates = res.Candidates
		attempt.Request = res.Request
		attempt.Response = res.Response
	}
	if err != nil {
		return attempt, err
	}
	return attempt, nil
}

type scanStrategy struct {
	store *vocab.Store
}

// NewScanStrategy wraps the in-process literal scanner as the last-resort
// tier.
func NewScanStrategy(store *vocab.Store) Strategy {
	return &scanStrategy{store: store}
}

func (s *scanStrategy) Name() models.Strategy { return models.StrategyScan }

// Attempt pins one vocabulary snapshot for the whole pass so a concurrent
// reload never tears the scan.
func (s *scanStrategy) Attempt(ctx context.Context, req *Request) (*Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.store.Snapshot()
	candidates := scan.Scan(req.Sent, snap, req.Limit)
	attachment, _ := json.Marshal(map[string]int{
		"scanned": snap.Len(),
		"hits":    len(candidates),
	})
	return &Attempt{
		Candidates: candidates,
		Request: &models.TraceRequest{
			Method: "SCAN",
			URL:    fmt.Sprintf("vocab://%s", s.store.Path()),
			Body:   req.Sent,
		},
		Attachment: attachment,
	}, nil
}
