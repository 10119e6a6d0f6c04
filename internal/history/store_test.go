package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/phenolab/ontosift/internal/funnel"
	"github.com/phenolab/ontosift/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Record(ctx, &funnel.Resolution{
		Query:     "super-morbid obesity",
		QuerySent: "super-morbid obesity",
		Outcome:   models.OutcomeScan,
		Results:   []*models.RankedResult{{ID: "X:01", Label: "Severe obesity"}},
		ElapsedMS: 4,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if id == "" {
		t.Fatal("expected assigned ID")
	}

	if _, err := s.Record(ctx, &funnel.Resolution{
		Query:   "gibberish",
		Outcome: models.OutcomeNoneFound,
		Results: []*models.RankedResult{},
	}); err != nil {
		t.Fatalf("record empty resolution: %v", err)
	}

	records, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	var found *Record
	for _, r := range records {
		if r.ID == id {
			found = r
		}
	}
	if found == nil {
		t.Fatal("recorded resolution not returned")
	}
	if found.Outcome != models.OutcomeScan || found.ResultCount != 1 || found.TopID != "X:01" {
		t.Errorf("record fields wrong: %+v", found)
	}
	if found.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("empty count: n=%d err=%v", n, err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Record(ctx, &funnel.Resolution{Query: "q", Outcome: models.OutcomeNoneFound}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if n, _ = s.Count(ctx); n != 3 {
		t.Errorf("count: got %d, want 3", n)
	}
}

func TestRecentLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.Record(ctx, &funnel.Resolution{Query: "q", Outcome: models.OutcomeScan}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	records, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("limit not applied: %d", len(records))
	}
}
