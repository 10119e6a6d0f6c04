package funnel

import "github.com/phenolab/ontosift/internal/models"

// MergePolicy controls how raw scores combine when the same concept is found
// more than once, either by multiple synonym hits within a tier or by
// multiple tiers under exhaustive tracing.
type MergePolicy string

const (
	// MergeMax keeps the highest contributing raw score per concept.
	MergeMax MergePolicy = "max"
	// MergeSum adds contributing raw scores per concept.
	MergeSum MergePolicy = "sum"
)

// Merge deduplicates candidates by concept identifier. Hit counts accumulate
// across duplicates; the matched term and wire fields follow the
// highest-scoring contribution. First-seen order is preserved so downstream
// ranking sees a deterministic input.
func Merge(candidates []*models.Candidate, policy MergePolicy) []*models.Candidate {
	if len(candidates) <= 1 {
		return candidates
	}
	byID := make(map[string]*models.Candidate, len(candidates))
	bestRaw := make(map[string]float64, len(candidates))
	merged := make([]*models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		existing, ok := byID[c.ConceptID]
		if !ok {
			cp := *c
			byID[c.ConceptID] = &cp
			bestRaw[c.ConceptID] = c.RawScore
			merged = append(merged, &cp)
			continue
		}
		existing.Hits += c.Hits
		if c.RawScore > bestRaw[c.ConceptID] {
			bestRaw[c.ConceptID] = c.RawScore
			existing.Matched = c.Matched
			existing.Source = c.Source
			existing.Label = c.Label
			existing.Definition = c.Definition
			existing.Synonyms = c.Synonyms
		}
		switch policy {
		case MergeSum:
			existing.RawScore += c.RawScore
		default:
			existing.RawScore = bestRaw[c.ConceptID]
		}
	}
	return merged
}
