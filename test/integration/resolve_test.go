// Package integration provides end-to-end tests across the full resolution stack.
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/phenolab/ontosift/internal/config"
	"github.com/phenolab/ontosift/internal/funnel"
	"github.com/phenolab/ontosift/internal/history"
	"github.com/phenolab/ontosift/internal/index"
	"github.com/phenolab/ontosift/internal/ranking"
	"github.com/phenolab/ontosift/internal/server"
	"github.com/phenolab/ontosift/internal/vocab"
)

const snapshotJSON = `{
  "graphs": [{
    "nodes": [
      {
        "id": "http://purl.obolibrary.org/obo/X_0000001",
        "lbl": "Severe obesity",
        "type": "CLASS",
        "meta": {
          "definition": {"val": "BMI over 40."},
          "synonyms": [{"pred": "hasExactSynonym", "val": "super-morbid obesity"}]
        }
      },
      {
        "id": "http://purl.obolibrary.org/obo/X_0000002",
        "lbl": "Seizure",
        "type": "CLASS",
        "meta": {"synonyms": [{"pred": "hasExactSynonym", "val": "Fits"}]}
      }
    ]
  }]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := os.WriteFile(path, []byte(snapshotJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeUpstream mimics the search service's hybrid search endpoint.
func fakeUpstream(t *testing.T, hits []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indexes/concepts/search" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": hits})
	}))
}

func newStack(t *testing.T, upstreamURL string) (http.Handler, *vocab.Store) {
	t.Helper()
	store, err := vocab.NewStore(writeSnapshot(t), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	hist, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { hist.Close() })

	var indexTier funnel.Strategy
	var client *index.Client
	if upstreamURL != "" {
		client = index.NewClient(index.Config{
			URL:           upstreamURL,
			IndexUID:      "concepts",
			EmbedderName:  "concept-semantic",
			SemanticRatio: 0.5,
		}, nil)
		indexTier = funnel.NewIndexStrategy(client, nil)
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	f := funnel.New(
		nil,
		indexTier,
		funnel.NewScanStrategy(store),
		store,
		ranking.NewRanker(nil, nil),
		funnel.Config{MergePolicy: funnel.MergeMax},
		zap.NewNop(),
	)
	srv := server.NewServer(f, store, hist, client, cfg, zap.NewNop())
	return srv.Router(), store
}

func postResolve(t *testing.T, handler http.Handler, body map[string]any) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resolve", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestIntegration_IndexTierWins(t *testing.T) {
	upstream := fakeUpstream(t, []map[string]any{
		{"hpo_id": "X:0000001", "name": "Severe obesity", "_rankingScore": 0.92},
	})
	defer upstream.Close()

	handler, _ := newStack(t, upstream.URL)
	resp := postResolve(t, handler, map[string]any{"query": "severe obesity"})

	if resp["outcome"] != "index" {
		t.Errorf("expected outcome index, got %v", resp["outcome"])
	}
	results := resp["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	top := results[0].(map[string]any)
	if top["id"] != "X:0000001" {
		t.Errorf("expected X:0000001, got %v", top["id"])
	}
	// Label and definition come from the pinned snapshot, not the wire hit.
	if top["definition"] != "BMI over 40." {
		t.Errorf("definition not filled from vocabulary: %v", top["definition"])
	}
}

func TestIntegration_IndexDownFallsThroughToScan(t *testing.T) {
	upstream := fakeUpstream(t, nil)
	upstream.Close() // upstream is unreachable for the whole test

	handler, _ := newStack(t, upstream.URL)
	resp := postResolve(t, handler, map[string]any{"query": "seizure", "debug": true})

	if resp["outcome"] != "scan" {
		t.Errorf("expected outcome scan, got %v", resp["outcome"])
	}
	results := resp["results"].([]any)
	if len(results) == 0 {
		t.Fatal("expected scan results")
	}
	if results[0].(map[string]any)["id"] != "X:0000002" {
		t.Errorf("expected X:0000002, got %v", results[0].(map[string]any)["id"])
	}

	trace := resp["debug"].(map[string]any)
	entries := trace["entries"].([]any)
	if len(entries) != 3 {
		t.Fatalf("expected 3 trace entries, got %d", len(entries))
	}
	indexEntry := entries[1].(map[string]any)
	if indexEntry["error"] == nil || indexEntry["error"] == "" {
		t.Error("expected index entry to record the upstream failure")
	}
	scanEntry := entries[2].(map[string]any)
	if scanEntry["skipped"] != nil {
		t.Error("scan should have run after index failure")
	}
}

func TestIntegration_SynonymMatchViaScan(t *testing.T) {
	handler, _ := newStack(t, "")
	resp := postResolve(t, handler, map[string]any{"query": "fits"})

	if resp["outcome"] != "scan" {
		t.Errorf("expected outcome scan, got %v", resp["outcome"])
	}
	results := resp["results"].([]any)
	if len(results) != 1 || results[0].(map[string]any)["id"] != "X:0000002" {
		t.Fatalf("expected synonym match on X:0000002, got %v", results)
	}
}

func TestIntegration_HistoryRecordsResolutions(t *testing.T) {
	handler, _ := newStack(t, "")
	postResolve(t, handler, map[string]any{"query": "seizure"})
	postResolve(t, handler, map[string]any{"query": "no such finding"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var records []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(records))
	}
	outcomes := map[string]bool{}
	for _, r := range records {
		outcomes[r["outcome"].(string)] = true
	}
	if !outcomes["scan"] || !outcomes["none_found"] {
		t.Errorf("expected scan and none_found outcomes, got %v", outcomes)
	}
}
