// Package agent implements the LLM extraction tier: a clinical narrative is
// reduced to atomic findings by a chat model, then each finding is mapped to
// concepts through the external index.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/phenolab/ontosift/internal/embedding"
	"github.com/phenolab/ontosift/internal/index"
	"github.com/phenolab/ontosift/internal/models"
)

// Searcher maps one extracted term to concept candidates. Satisfied by
// *index.Client.
type Searcher interface {
	Search(ctx context.Context, term string, vector []float32, limit int) (*index.Result, error)
}

// Config holds the chat model connection settings.
type Config struct {
	BaseURL        string
	Model          string
	APIKey         string
	ResultsPerTerm int
}

// Result is one completed extraction pass.
type Result struct {
	Terms      []string
	Candidates []*models.Candidate
	RawText    string
	Attachment json.RawMessage
}

// Resolver drives the extraction tier. Safe for concurrent use.
type Resolver struct {
	model    llms.Model
	searcher Searcher
	embedder embedding.Embedder
	perTerm  int
	logger   *zap.Logger
}

// NewResolver connects to an OpenAI-compatible chat endpoint. embedder may be
// nil, in which case term searches run keyword-only.
func NewResolver(cfg Config, searcher Searcher, embedder embedding.Embedder, logger *zap.Logger) (*Resolver, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Local OpenAI-compatible servers accept any token.
		apiKey = "none"
	}
	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(apiKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	return newResolver(model, cfg, searcher, embedder, logger), nil
}

func newResolver(model llms.Model, cfg Config, searcher Searcher, embedder embedding.Embedder, logger *zap.Logger) *Resolver {
	perTerm := cfg.ResultsPerTerm
	if perTerm <= 0 {
		perTerm = 5
	}
	return &Resolver{
		model:    model,
		searcher: searcher,
		embedder: embedder,
		perTerm:  perTerm,
		logger:   logger,
	}
}

// termSearch records one per-term index lookup for the trace attachment.
type termSearch struct {
	Term  string `json:"term"`
	Hits  int    `json:"hits"`
	TopID string `json:"top_id,omitempty"`
	Error string `json:"error,omitempty"`
}

type extraction struct {
	ParsedTerms  []string     `json:"parsed_terms"`
	TermSearches []termSearch `json:"term_searches"`
}

// Extract runs only the model step and returns its raw text. Used by the
// conversational endpoint; Resolve is the funnel entry point.
func (r *Resolver) Extract(ctx context.Context, query string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(query)},
		},
	}
	response, err := r.model.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		return "", fmt.Errorf("chat model failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat model returned no choices")
	}
	return cleanResponse(response.Choices[0].Content), nil
}

// Resolve extracts terms from query and maps each through the index. Term
// searches that fail are recorded in the attachment and skipped; a Result
// with zero candidates is not an error.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Result, error) {
	raw, err := r.Extract(ctx, query)
	if err != nil {
		return nil, err
	}

	terms := ParseTerms(raw)
	r.logger.Debug("parsed extraction terms",
		zap.Int("count", len(terms)),
		zap.Strings("terms", terms))

	result := &Result{Terms: terms, RawText: raw}
	ext := extraction{ParsedTerms: terms, TermSearches: []termSearch{}}

	for _, term := range terms {
		ts := termSearch{Term: term}
		res, searchErr := r.searcher.Search(ctx, term, r.embedTerm(ctx, term), r.perTerm)
		if searchErr != nil {
			ts.Error = searchErr.Error()
			ext.TermSearches = append(ext.TermSearches, ts)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("term search failed",
				zap.String("term", term),
				zap.Error(searchErr))
			continue
		}
		ts.Hits = len(res.Candidates)
		if len(res.Candidates) > 0 {
			ts.TopID = res.Candidates[0].ConceptID
		}
		ext.TermSearches = append(ext.TermSearches, ts)
		for _, cand := range res.Candidates {
			cand.Source = models.StrategyAgent
			cand.Matched = term
			result.Candidates = append(result.Candidates, cand)
		}
	}

	if attachment, marshalErr := json.Marshal(ext); marshalErr == nil {
		result.Attachment = attachment
	}
	return result, nil
}

// embedTerm returns a query vector for hybrid search, or nil to fall back to
// keyword-only when no embedder is configured or embedding fails.
func (r *Resolver) embedTerm(ctx context.Context, term string) []float32 {
	if r.embedder == nil {
		return nil
	}
	vector, err := r.embedder.Embed(ctx, term)
	if err != nil {
		r.logger.Warn("term embedding failed, searching keyword-only",
			zap.String("term", term),
			zap.Error(err))
		return nil
	}
	return vector
}

// cleanResponse strips markdown code fences some models wrap output in.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
