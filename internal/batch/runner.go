// Package batch runs the resolution funnel over a spreadsheet of queries,
// one per row, and writes the outcome columns back out. Used for evaluating
// resolution quality over curated case collections.
package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/phenolab/ontosift/internal/funnel"
)

// Resolver is the narrow funnel view the runner needs.
type Resolver interface {
	Run(ctx context.Context, query string, opts funnel.Options) *funnel.Resolution
}

// Runner processes one workbook at a time.
type Runner struct {
	resolver Resolver
	logger   *zap.Logger
}

// NewRunner creates a batch runner.
func NewRunner(resolver Resolver, logger *zap.Logger) *Runner {
	return &Runner{resolver: resolver, logger: logger}
}

// Process reads queries from the first column of the first sheet of inPath,
// resolves each, and writes outcome, top concept, and score columns next to
// them in outPath. A first row whose query cell reads "query" is treated as
// a header. Returns the number of queries processed.
func (r *Runner) Process(ctx context.Context, inPath, outPath string, limit int) (int, error) {
	f, err := excelize.OpenFile(inPath)
	if err != nil {
		return 0, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return 0, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	processed := 0
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		query := strings.TrimSpace(row[0])
		rowNum := i + 1

		if i == 0 && strings.EqualFold(query, "query") {
			r.setRow(f, sheet, rowNum, "outcome", "top_id", "top_label", "score")
			continue
		}

		res := r.resolver.Run(ctx, query, funnel.Options{Limit: limit})
		topID, topLabel, score := "", "", ""
		if len(res.Results) > 0 {
			top := res.Results[0]
			topID = top.ID
			topLabel = top.Label
			score = fmt.Sprintf("%.3f", top.Score)
		}
		r.setRow(f, sheet, rowNum, string(res.Outcome), topID, topLabel, score)
		processed++

		r.logger.Debug("batch row resolved",
			zap.Int("row", rowNum),
			zap.String("query", query),
			zap.String("outcome", string(res.Outcome)),
			zap.String("top_id", topID))
	}

	if err := f.SaveAs(outPath); err != nil {
		return processed, fmt.Errorf("save workbook: %w", err)
	}
	return processed, nil
}

func (r *Runner) setRow(f *excelize.File, sheet string, rowNum int, values ...string) {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+2, rowNum)
		if err != nil {
			continue
		}
		_ = f.SetCellValue(sheet, cell, v)
	}
}
