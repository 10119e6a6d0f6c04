package models

// Strategy identifies one retrieval tier in the fallback chain.
type Strategy string

const (
	StrategyAgent Strategy = "agent"
	StrategyIndex Strategy = "index"
	StrategyScan  Strategy = "scan"
)

// Outcome reports which tier ultimately supplied results for a resolution.
type Outcome string

const (
	OutcomeEmptyQuery Outcome = "empty_query"
	OutcomeAgent      Outcome = "agent"
	OutcomeIndex      Outcome = "index"
	OutcomeScan       Outcome = "scan"
	OutcomeNoneFound  Outcome = "none_found"
)

// Candidate is an unranked, possibly-duplicated match between a query term and
// a concept. The same concept may appear in multiple candidates from different
// strategies or different extracted terms; candidates are merged by concept ID
// before ranking.
type Candidate struct {
	ConceptID string   `json:"concept_id"`
	Matched   string   `json:"matched"` // the term the concept matched against
	RawScore  float64  `json:"raw_score"`
	Source    Strategy `json:"source"`
	Hits      int      `json:"hits"` // contributing matches accumulated during merge

	// Wire-supplied concept fields, used when the concept is absent from the
	// local vocabulary snapshot (the index replica may be ahead of it).
	Label      string   `json:"-"`
	Definition string   `json:"-"`
	Synonyms   []string `json:"-"`
}

// RankedResult is a merged candidate with its composite score and rank position.
// Ordering is by descending score, ties broken by ascending concept ID.
type RankedResult struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Definition string   `json:"definition,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
	Matched    string   `json:"matched_term,omitempty"`
	Source     Strategy `json:"source"`
	RawScore   float64  `json:"raw_score"`
	Score      float64  `json:"score"`
	Rank       int      `json:"rank"`
	// Flagged marks results outside the policy's must-have set. Advisory: the
	// boundary layer decides whether to show or hide flagged results.
	Flagged bool `json:"flagged,omitempty"`
}
