package vocab

import (
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/phenolab/ontosift/internal/models"
)

// Snapshot is one immutable, consistently-ordered view of the vocabulary.
// Readers pin a snapshot at the start of a request and use it exclusively for
// that request's lifetime; a reload never mutates an existing snapshot.
type Snapshot struct {
	concepts []*models.Concept
	byID     map[string]*models.Concept
	loadedAt time.Time
}

// Concepts returns all concepts in stable snapshot-file order.
// The returned slice and its entries are read-only.
func (s *Snapshot) Concepts() []*models.Concept {
	return s.concepts
}

// Get looks up a concept by CURIE. Underscore form (HP_0001631) is normalized
// to colon form.
func (s *Snapshot) Get(id string) (*models.Concept, bool) {
	if ns, rest, ok := strings.Cut(id, "_"); ok && !strings.Contains(id, ":") {
		id = strings.ToUpper(ns) + ":" + rest
	}
	c, ok := s.byID[id]
	return c, ok
}

// Len returns the number of concepts in the snapshot.
func (s *Snapshot) Len() int { return len(s.concepts) }

// LoadedAt returns when the snapshot was loaded.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Store owns the current vocabulary snapshot and swaps in replacements
// atomically so concurrent readers always observe one consistent snapshot.
type Store struct {
	snap   atomic.Pointer[Snapshot]
	path   string
	logger *zap.Logger
}

// NewStore loads the snapshot at path. A load failure here is fatal for the
// caller: the store refuses to exist without a usable vocabulary.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	snap, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, logger: logger}
	s.snap.Store(snap)
	if logger != nil {
		logger.Info("vocabulary loaded",
			zap.String("path", path),
			zap.Int("concepts", snap.Len()),
		)
	}
	return s, nil
}

// Snapshot returns the current snapshot. Callers keep the returned pointer for
// the duration of one request; in-flight work is unaffected by later reloads.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Reload re-reads the snapshot file and swaps it in atomically. On failure the
// previous snapshot stays in place.
func (s *Store) Reload() error {
	snap, err := LoadSnapshot(s.path)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("vocabulary reload failed, keeping previous snapshot", zap.Error(err))
		}
		return err
	}
	s.snap.Store(snap)
	if s.logger != nil {
		s.logger.Info("vocabulary reloaded", zap.Int("concepts", snap.Len()))
	}
	return nil
}

// Path returns the snapshot file path the store reloads from.
func (s *Store) Path() string { return s.path }
