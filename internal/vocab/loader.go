// Package vocab loads the vocabulary snapshot and serves immutable,
// atomically-swappable views of it.
package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/phenolab/ontosift/internal/models"
)

// LoadError reports a snapshot that is missing or structurally unusable.
// It is fatal at startup: a vocabulary that cannot be loaded cannot serve
// any strategy.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("vocabulary load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// obographs subset of the snapshot document. Only the node fields the
// vocabulary needs are decoded.
type oboDocument struct {
	Graphs []oboGraph `json:"graphs"`
}

type oboGraph struct {
	Nodes []oboNode `json:"nodes"`
}

type oboNode struct {
	ID   string  `json:"id"`
	Lbl  string  `json:"lbl"`
	Meta oboMeta `json:"meta"`
}

type oboMeta struct {
	Definition *oboValue  `json:"definition"`
	Synonyms   []oboValue `json:"synonyms"`
}

type oboValue struct {
	Val string `json:"val"`
}

// curieFromIRI converts an OBO IRI to a CURIE
// (e.g. http://.../obo/HP_0000123 -> HP:0000123). Plain CURIEs pass through.
func curieFromIRI(id string) string {
	if id == "" {
		return ""
	}
	if strings.Contains(id, "://") {
		id = id[strings.LastIndex(id, "/")+1:]
	}
	if ns, rest, ok := strings.Cut(id, "_"); ok {
		return strings.ToUpper(ns) + ":" + rest
	}
	return id
}

// LoadSnapshot reads and parses an obographs JSON snapshot at path.
// Optional node fields (definition, synonyms) may be missing; a node missing
// its identifier or label is a LoadError, since those are load-bearing for
// every strategy.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	var doc oboDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("parse snapshot: %w", err)}
	}

	var concepts []*models.Concept
	byID := make(map[string]*models.Concept)
	for _, graph := range doc.Graphs {
		for _, node := range graph.Nodes {
			id := curieFromIRI(node.ID)
			if id == "" {
				return nil, &LoadError{Path: path, Err: fmt.Errorf("node with missing identifier")}
			}
			label := strings.TrimSpace(node.Lbl)
			if label == "" {
				return nil, &LoadError{Path: path, Err: fmt.Errorf("node %s has no label", id)}
			}
			c := &models.Concept{ID: id, Label: label}
			if node.Meta.Definition != nil {
				c.Definition = strings.TrimSpace(node.Meta.Definition.Val)
			}
			for _, s := range node.Meta.Synonyms {
				if v := strings.TrimSpace(s.Val); v != "" {
					c.Synonyms = append(c.Synonyms, v)
				}
			}
			concepts = append(concepts, c)
			byID[id] = c
		}
	}
	if len(concepts) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("snapshot contains no concepts")}
	}

	return &Snapshot{
		concepts: concepts,
		byID:     byID,
		loadedAt: time.Now(),
	}, nil
}
