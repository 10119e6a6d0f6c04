// Package models defines core data structures for concepts, queries, candidates,
// and resolution results.
package models

// Concept is a single controlled-vocabulary entry (e.g. an HPO term).
// Concepts are immutable once loaded; the vocabulary store owns them for the
// process lifetime and swaps complete snapshots on reload.
type Concept struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Definition string    `json:"definition,omitempty"`
	Synonyms   []string  `json:"synonyms,omitempty"`
	Embedding  []float32 `json:"-"`
}
