package models

import (
	"fmt"
	"regexp"
	"strings"
)

// ResolveRequest represents a resolution request with options.
type ResolveRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	RunAll bool   `json:"run_all,omitempty"` // attempt every tier and merge (exhaustive tracing)
	Debug  bool   `json:"debug,omitempty"`   // include the trace in the response
}

// Validate normalizes limit and returns an error if the query is empty after trimming.
func (r *ResolveRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	return nil
}

// conceptIDPattern matches ontology term identifiers such as HP:0001631 or
// HP_0001631, which must survive stop-word stripping untouched.
var conceptIDPattern = regexp.MustCompile(`(?i)^HP[_:]\d+`)

// trimPunct strips leading/trailing punctuation and underscores from a token.
var trimPunct = regexp.MustCompile(`^[\W_]+|[\W_]+$`)

// DefaultStopWords is the default English stop-word set for clinical and
// phenotype queries.
var DefaultStopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "as": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "been": {}, "be": {}, "have": {},
	"has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "may": {}, "might": {}, "must": {}, "can": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "it": {}, "its": {}, "they": {},
	"them": {}, "their": {}, "he": {}, "she": {}, "his": {}, "her": {}, "we": {},
	"our": {}, "you": {}, "your": {}, "i": {}, "my": {}, "me": {}, "not": {}, "no": {},
	"so": {}, "if": {}, "then": {}, "than": {}, "when": {}, "which": {}, "who": {},
	"what": {}, "where": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "between": {},
}

// RemoveStopWords removes stop words from the query and collapses whitespace.
// Ontology IDs (e.g. HP:0001631) and clinical terms are kept intact.
// A nil stopWords uses DefaultStopWords.
func RemoveStopWords(query string, stopWords map[string]struct{}) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}
	stop := stopWords
	if stop == nil {
		stop = DefaultStopWords
	}
	var kept []string
	for _, tok := range strings.Fields(query) {
		if conceptIDPattern.MatchString(tok) {
			kept = append(kept, tok)
			continue
		}
		word := trimPunct.ReplaceAllString(strings.ToLower(tok), "")
		if word == "" {
			continue
		}
		if _, skip := stop[word]; !skip {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// PrepareQuery derives the "sent" string forwarded to retrieval strategies:
// stop words removed and whitespace normalized. If stripping leaves nothing,
// the trimmed original is returned so that stop-word-only queries still search.
func PrepareQuery(query string) string {
	normalized := RemoveStopWords(query, nil)
	if normalized == "" {
		return strings.TrimSpace(query)
	}
	return normalized
}
