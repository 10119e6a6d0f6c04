// Package index is the HTTP client adapter to the external hybrid
// (keyword + vector) search capability. The wire mapping is a versioned
// compatibility seam, tested independently of the funnel.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phenolab/ontosift/internal/models"
	"github.com/phenolab/ontosift/pkg/utils"
)

// MappingVersion identifies the request/response translation implemented by
// this adapter (Meilisearch v1 search contract with a user-provided embedder).
const MappingVersion = "v1"

// traceBodyLimit bounds how much of a wire body is kept in the trace.
const traceBodyLimit = 2000

var (
	// ErrUnavailable marks network, timeout, and non-2xx failures. The funnel
	// recovers from these by falling through to the next tier.
	ErrUnavailable = errors.New("index unavailable")
	// ErrMalformed marks responses that violate the adapter contract. Treated
	// like ErrUnavailable for fallback purposes but logged distinctly.
	ErrMalformed = errors.New("index response malformed")
)

// Config holds connection settings for the external index.
type Config struct {
	URL           string
	APIKey        string
	IndexUID      string
	EmbedderName  string
	SemanticRatio float64
}

// Client issues one search request per call. It never retries internally;
// retry policy belongs to the caller so trace timing reflects single attempts.
// Safe for concurrent use: the underlying http.Client pools connections.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client for the external index. httpClient may be nil, in
// which case a default client is used (per-call deadlines come from context).
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// searchRequest is the mapping-v1 wire request.
type searchRequest struct {
	Q                string        `json:"q"`
	Limit            int           `json:"limit"`
	Hybrid           *hybridParams `json:"hybrid,omitempty"`
	Vector           []float32     `json:"vector,omitempty"`
	ShowRankingScore bool          `json:"showRankingScore"`
}

type hybridParams struct {
	SemanticRatio float64 `json:"semanticRatio"`
	Embedder      string  `json:"embedder"`
}

// searchHit is the mapping-v1 wire hit shape.
type searchHit struct {
	ConceptID    string   `json:"hpo_id"`
	Name         string   `json:"name"`
	Definition   string   `json:"definition"`
	SynonymsStr  string   `json:"synonyms_str"`
	RankingScore *float64 `json:"_rankingScore"`
}

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

// Result carries the candidates plus the wire request/response for tracing.
// It is populated as far as the call got, even on error.
type Result struct {
	Candidates []*models.Candidate
	Request    *models.TraceRequest
	Response   *models.TraceResponse
}

// Search issues one hybrid search for term. vector may be nil for
// keyword-only search. Zero hits is a valid result, not an error.
func (c *Client) Search(ctx context.Context, term string, vector []float32, limit int) (*Result, error) {
	reqBody := searchRequest{Q: term, Limit: limit, ShowRankingScore: true}
	if len(vector) > 0 && c.cfg.EmbedderName != "" {
		reqBody.Hybrid = &hybridParams{
			SemanticRatio: c.cfg.SemanticRatio,
			Embedder:      c.cfg.EmbedderName,
		}
		reqBody.Vector = vector
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return &Result{}, fmt.Errorf("%w: encode request: %v", ErrMalformed, err)
	}

	url := fmt.Sprintf("%s/indexes/%s/search", c.cfg.URL, c.cfg.IndexUID)
	res := &Result{Request: &models.TraceRequest{
		Method: http.MethodPost,
		URL:    url,
		Body:   utils.Truncate(string(payload), traceBodyLimit),
	}}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return res, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpRes, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return res, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	res.Response = &models.TraceResponse{
		Status: httpRes.StatusCode,
		Body:   utils.Truncate(string(body), traceBodyLimit),
	}

	if httpRes.StatusCode < 200 || httpRes.StatusCode >= 300 {
		return res, fmt.Errorf("%w: status %d", ErrUnavailable, httpRes.StatusCode)
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return res, fmt.Errorf("%w: decode response: %v", ErrMalformed, err)
	}

	for i, hit := range decoded.Hits {
		if hit.ConceptID == "" {
			return res, fmt.Errorf("%w: hit %d missing concept identifier", ErrMalformed, i)
		}
		res.Candidates = append(res.Candidates, &models.Candidate{
			ConceptID:  hit.ConceptID,
			Matched:    term,
			RawScore:   hitScore(hit, i),
			Source:     models.StrategyIndex,
			Hits:       1,
			Label:      hit.Name,
			Definition: hit.Definition,
			Synonyms:   splitSynonyms(hit.SynonymsStr),
		})
	}
	return res, nil
}

// hitScore uses the index's ranking score when present, else a positional
// score so ordering stays deterministic.
func hitScore(hit searchHit, position int) float64 {
	if hit.RankingScore != nil {
		return *hit.RankingScore
	}
	return 1.0 / float64(1+position)
}

// splitSynonyms undoes the flattened synonyms_str field (";"-joined).
func splitSynonyms(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Health checks index reachability.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}
	return nil
}
