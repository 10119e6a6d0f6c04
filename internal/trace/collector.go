// Package trace accumulates per-strategy diagnostics during a resolution.
// Data flows one way: strategies append entries, the caller snapshots the
// finished trace into the response. A collector is scoped to one resolution
// and is not shared across goroutines.
package trace

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/phenolab/ontosift/internal/models"
)

// Collector builds the diagnostic trace for a single resolution.
type Collector struct {
	id      string
	entries []models.TraceEntry
}

// NewCollector creates an empty collector with a fresh trace identifier.
func NewCollector() *Collector {
	return &Collector{id: uuid.New().String()}
}

// ID returns the trace identifier, usable in logs before the snapshot exists.
func (c *Collector) ID() string {
	return c.id
}

// Record appends an attempt entry. req, resp, and attachment may be nil when
// the strategy has no wire exchange to report. err is recorded as its message
// so the trace stays serializable.
func (c *Collector) Record(strategy models.Strategy, req *models.TraceRequest, resp *models.TraceResponse, err error, elapsed time.Duration, attachment json.RawMessage) {
	entry := models.TraceEntry{
		Strategy:   strategy,
		Request:    req,
		Response:   resp,
		ElapsedMS:  elapsed.Milliseconds(),
		Attachment: attachment,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	c.entries = append(c.entries, entry)
}

// Skip appends an entry for a strategy that was not attempted.
func (c *Collector) Skip(strategy models.Strategy, reason string) {
	c.entries = append(c.entries, models.TraceEntry{
		Strategy: strategy,
		Skipped:  &models.SkipInfo{Reason: reason},
	})
}

// Snapshot returns the trace accumulated so far. The returned slice is a
// copy; later appends do not mutate it.
func (c *Collector) Snapshot() models.Trace {
	entries := make([]models.TraceEntry, len(c.entries))
	copy(entries, c.entries)
	return models.Trace{ID: c.id, Entries: entries}
}
