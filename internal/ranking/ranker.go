// Package ranking orders merged candidates by composite score: raw match
// score times a per-concept specificity multiplier, so a clinically specific
// finding outranks a generic one even when the generic one matched more
// literally.
package ranking

import (
	"sort"

	"github.com/phenolab/ontosift/internal/models"
)

// ConceptLookup resolves a concept identifier to its full record. Satisfied
// by *vocab.Snapshot.
type ConceptLookup interface {
	Get(id string) (*models.Concept, bool)
}

// Ranker is a pure scoring component: no I/O, deterministic for identical
// inputs. Safe for concurrent use.
type Ranker struct {
	source   RaritySource
	mustHave map[string]struct{}
}

// NewRanker creates a ranker. source may be nil, degrading to raw-score
// ordering. mustHave lists concept identifiers considered mandatory; results
// outside the set are flagged, never dropped, so the caller decides whether
// to hide them.
func NewRanker(source RaritySource, mustHave []string) *Ranker {
	r := &Ranker{source: source}
	if len(mustHave) > 0 {
		r.mustHave = make(map[string]struct{}, len(mustHave))
		for _, id := range mustHave {
			r.mustHave[id] = struct{}{}
		}
	}
	return r
}

// Rank scores and orders candidates. Candidates must already be merged to
// one per concept identifier. lookup may be nil; concept details then come
// from whatever the candidate's source strategy supplied over the wire.
// Ordering is descending composite score, ties broken by ascending concept
// identifier. limit <= 0 means no limit.
func (r *Ranker) Rank(candidates []*models.Candidate, lookup ConceptLookup, limit int) []*models.RankedResult {
	results := make([]*models.RankedResult, 0, len(candidates))
	for _, c := range candidates {
		multiplier := 1.0
		if r.source != nil {
			multiplier = r.source.Multiplier(c.ConceptID)
		}
		rr := &models.RankedResult{
			ID:         c.ConceptID,
			Label:      c.Label,
			Definition: c.Definition,
			Synonyms:   c.Synonyms,
			Matched:    c.Matched,
			Source:     c.Source,
			RawScore:   c.RawScore,
			Score:      c.RawScore * multiplier,
		}
		if lookup != nil {
			if concept, ok := lookup.Get(c.ConceptID); ok {
				rr.Label = concept.Label
				rr.Definition = concept.Definition
				rr.Synonyms = concept.Synonyms
			}
		}
		if r.mustHave != nil {
			if _, ok := r.mustHave[c.ConceptID]; !ok {
				rr.Flagged = true
			}
		}
		results = append(results, rr)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for i, rr := range results {
		rr.Rank = i + 1
	}
	return results
}
