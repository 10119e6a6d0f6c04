package funnel

import (
	"context"
	"errors"

	"github.com/phenolab/ontosift/internal/index"
)

// ErrEmptyQuery is the one input error the funnel reports to its caller.
// Everything upstream-shaped is recovered locally by falling through tiers.
var ErrEmptyQuery = errors.New("query is empty after trimming")

// failureKind buckets a tier failure for logging. All of these fall through
// to the next tier; the distinction is diagnostic only.
type failureKind string

const (
	failTimeout     failureKind = "timeout"
	failUnavailable failureKind = "upstream_unavailable"
	failMalformed   failureKind = "upstream_malformed"
	failInternal    failureKind = "internal"
)

func classify(err error) failureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return failTimeout
	case errors.Is(err, index.ErrMalformed):
		return failMalformed
	case errors.Is(err, index.ErrUnavailable):
		return failUnavailable
	default:
		return failInternal
	}
}
