package reclassify

import (
	"context"

	"github.com/rcliao/media-reclassify/internal/model"
)

// Summary aggregates a ProcessAll run.
type Summary struct {
	Count     int `json:"count"` // matching items when the run started
	Processed int `json:"processed"`
	Batches   int `json:"batches"`
	Success   int `json:"success"`
	Error     int `json:"error"`
	Skipped   int `json:"skipped"`
}

// ProgressFunc is called after every batch.
type ProgressFunc func(res *BatchResult, sum Summary)

// ProcessAll pages through every item matching f, advancing the offset by the
// number of items each batch actually processed. It stops at the end of the
// set, on an empty page, or when ctx is done between batches.
func (e *Engine) ProcessAll(ctx context.Context, f model.BatchFilter, opts Options, progress ProgressFunc) (Summary, error) {
	count, err := e.Count(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Count: count}

	for f.Offset < count {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, err := e.ProcessBatch(ctx, f, opts)
		if err != nil {
			return sum, err
		}
		if res.Total == 0 {
			break
		}
		sum.Batches++
		sum.Processed += res.Total
		sum.Success += res.Success
		sum.Error += res.Error
		sum.Skipped += res.Skipped
		if progress != nil {
			progress(res, sum)
		}
		f.Offset = res.NextOffset
	}
	return sum, nil
}
