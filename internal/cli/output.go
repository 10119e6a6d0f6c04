// Package cli provides output formatting for the ontosift command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/phenolab/ontosift/internal/funnel"
	"github.com/phenolab/ontosift/pkg/utils"
)

// OutputFormat is the format for resolution output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact is one line per result, easy to grep.
	OutputCompact OutputFormat = "compact"
)

// WriteResolution writes a resolution to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteResolution(w io.Writer, res *funnel.Resolution, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case OutputCompact:
		writeResolutionCompact(w, res)
		return nil
	default:
		writeResolutionText(w, res)
		return nil
	}
}

func writeResolutionText(w io.Writer, res *funnel.Resolution) {
	fmt.Fprintf(w, "\nQuery sent: %q\n", res.QuerySent)
	fmt.Fprintf(w, "Outcome: %s | %d results in %dms\n\n", res.Outcome, len(res.Results), res.ElapsedMS)
	if len(res.Terms) > 0 {
		fmt.Fprintf(w, "Extracted terms: %v\n\n", res.Terms)
	}
	for _, r := range res.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		flag := ""
		if r.Flagged {
			flag = " [flagged]"
		}
		fmt.Fprintf(w, "[%s] Rank: %d | Score: %.4f (raw %.4f)%s\n", r.Source, r.Rank, r.Score, r.RawScore, flag)
		fmt.Fprintf(w, "%s  %s\n", r.ID, r.Label)
		if r.Matched != "" {
			fmt.Fprintf(w, "Matched: %s\n", r.Matched)
		}
		if r.Definition != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(r.Definition, 200))
		}
		fmt.Fprintln(w)
	}
}

func writeResolutionCompact(w io.Writer, res *funnel.Resolution) {
	for _, r := range res.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%s\n", r.Rank, r.ID, r.Label, r.Score, r.Source)
	}
}

// PrintResolution prints a resolution to stdout in text format.
func PrintResolution(res *funnel.Resolution) {
	_ = WriteResolution(os.Stdout, res, OutputText)
}
