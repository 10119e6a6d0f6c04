package models

import "encoding/json"

// TraceRequest captures the wire request a strategy sent downstream.
type TraceRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Body   string `json:"body,omitempty"`
}

// TraceResponse captures the downstream response body and status.
type TraceResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`
}

// SkipInfo explains why a strategy was never attempted.
type SkipInfo struct {
	Reason string `json:"reason"`
}

// TraceEntry records one strategy's attempt (or skip) within a resolution.
type TraceEntry struct {
	Strategy  Strategy       `json:"strategy"`
	Request   *TraceRequest  `json:"request"`
	Response  *TraceResponse `json:"response"`
	Error     string         `json:"error,omitempty"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Skipped   *SkipInfo      `json:"skipped,omitempty"`
	// Attachment is an opaque sub-trace surfaced by the strategy itself (e.g.
	// the agent's per-term searches). The funnel does not depend on its shape.
	Attachment json.RawMessage `json:"attachment,omitempty"`
}

// Trace is the ordered, serializable record of what each tier was asked,
// returned, or why it was skipped. One entry per strategy in funnel-execution
// order; constructible even when the resolution returned zero results.
type Trace struct {
	ID      string       `json:"id"`
	Entries []TraceEntry `json:"entries"`
}
