// Package scan provides the last-resort literal scanner over the in-process
// vocabulary. It performs no I/O and is deterministic for a given snapshot.
package scan

import (
	"strings"

	"github.com/phenolab/ontosift/internal/models"
)

// Fixed raw-score tiers: a label match outranks a synonym match, which
// outranks a definition match.
const (
	ScoreLabel      = 3.0
	ScoreSynonym    = 2.0
	ScoreDefinition = 1.0
)

// DefinitionPrefixLen bounds how much of each definition is scanned.
const DefinitionPrefixLen = 500

// View is the read-only vocabulary view the scanner walks. Concepts must be
// returned in a stable order so results are reproducible across runs.
type View interface {
	Concepts() []*models.Concept
}

// Scan matches term case-insensitively against each concept's label, synonyms,
// and a bounded definition prefix, collecting at most limit candidates in
// vocabulary order. Multiple hits against one concept produce a single
// candidate carrying the best tier score, with contributing hits accumulated.
func Scan(term string, source View, limit int) []*models.Candidate {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || limit <= 0 {
		return nil
	}

	var out []*models.Candidate
	for _, c := range source.Concepts() {
		cand := match(term, c)
		if cand == nil {
			continue
		}
		out = append(out, cand)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func match(term string, c *models.Concept) *models.Candidate {
	var (
		best    float64
		matched string
		hits    int
	)
	if strings.Contains(strings.ToLower(c.Label), term) {
		best, matched, hits = ScoreLabel, c.Label, 1
	}
	for _, syn := range c.Synonyms {
		if strings.Contains(strings.ToLower(syn), term) {
			hits++
			if best < ScoreSynonym {
				best, matched = ScoreSynonym, syn
			}
		}
	}
	if def := definitionPrefix(c.Definition); def != "" && strings.Contains(strings.ToLower(def), term) {
		hits++
		if best < ScoreDefinition {
			best, matched = ScoreDefinition, c.Label
		}
	}
	if hits == 0 {
		return nil
	}
	return &models.Candidate{
		ConceptID:  c.ID,
		Matched:    matched,
		RawScore:   best,
		Source:     models.StrategyScan,
		Hits:       hits,
		Label:      c.Label,
		Definition: c.Definition,
		Synonyms:   c.Synonyms,
	}
}

func definitionPrefix(def string) string {
	if len(def) > DefinitionPrefixLen {
		return def[:DefinitionPrefixLen]
	}
	return def
}
