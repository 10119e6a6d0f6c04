package ranking

import (
	"math"
	"strings"

	"github.com/phenolab/ontosift/internal/models"
)

// RaritySource supplies the specificity multiplier for a concept. Multipliers
// are >= 1; a concept unknown to the source gets 1.0.
type RaritySource interface {
	Multiplier(conceptID string) float64
}

// TierSource reads multipliers from a configured per-concept table.
type TierSource struct {
	tiers map[string]float64
}

// NewTierSource builds a source from explicit rarity tiers. Non-positive
// entries are dropped.
func NewTierSource(tiers map[string]float64) *TierSource {
	cleaned := make(map[string]float64, len(tiers))
	for id, m := range tiers {
		if m > 0 {
			cleaned[id] = m
		}
	}
	return &TierSource{tiers: cleaned}
}

func (t *TierSource) Multiplier(conceptID string) float64 {
	if m, ok := t.tiers[conceptID]; ok {
		return m
	}
	return 1.0
}

// VocabRarity derives multipliers from label token frequency across the
// vocabulary. Concepts whose label tokens are rare across the vocabulary get
// a higher multiplier, scaled into [1, maxBoost]. The table is computed once
// per snapshot and read-only afterwards.
type VocabRarity struct {
	multipliers map[string]float64
}

// NewVocabRarity computes the rarity table for a set of concepts. maxBoost
// caps the strongest multiplier; values <= 1 disable boosting.
func NewVocabRarity(concepts []*models.Concept, maxBoost float64) *VocabRarity {
	v := &VocabRarity{multipliers: make(map[string]float64, len(concepts))}
	if maxBoost <= 1 || len(concepts) == 0 {
		return v
	}

	docFreq := make(map[string]int)
	tokenized := make([][]string, len(concepts))
	for i, c := range concepts {
		tokens := labelTokens(c.Label)
		tokenized[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
		}
	}

	n := float64(len(concepts))
	raw := make([]float64, len(concepts))
	var min, max float64 = math.Inf(1), math.Inf(-1)
	for i, tokens := range tokenized {
		var sum float64
		for _, tok := range tokens {
			sum += math.Log(1 + n/float64(docFreq[tok]))
		}
		score := 0.0
		if len(tokens) > 0 {
			score = sum / float64(len(tokens))
		}
		raw[i] = score
		if score < min {
			min = score
		}
		if score > max {
			max = score
		}
	}

	// Scale raw IDF averages into [1, maxBoost]. A flat vocabulary (all
	// scores equal) degrades to multiplier 1 everywhere.
	spread := max - min
	for i, c := range concepts {
		if spread == 0 {
			v.multipliers[c.ID] = 1.0
			continue
		}
		v.multipliers[c.ID] = 1 + (raw[i]-min)/spread*(maxBoost-1)
	}
	return v
}

func (v *VocabRarity) Multiplier(conceptID string) float64 {
	if m, ok := v.multipliers[conceptID]; ok {
		return m
	}
	return 1.0
}

func labelTokens(label string) []string {
	fields := strings.Fields(strings.ToLower(label))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:()[]")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
