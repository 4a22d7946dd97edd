package cli

import (
	"fmt"
	"time"

	"github.com/rcliao/media-reclassify/internal/model"
	"github.com/rcliao/media-reclassify/internal/reclassify"
	"github.com/spf13/cobra"
)

func addDateFlags(cmd *cobra.Command) {
	cmd.Flags().String("date-from", "", "Only attachments created on or after this day (YYYY-MM-DD)")
	cmd.Flags().String("date-to", "", "Only attachments created on or before this day (YYYY-MM-DD)")
}

// parseDay accepts exactly YYYY-MM-DD. endOfDay moves the result to 23:59:59.
func parseDay(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil || t.Format(time.DateOnly) != s {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	if endOfDay {
		t = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.Local)
	}
	return &t, nil
}

// dateFilter reads --date-from and --date-to into a filter.
func dateFilter(cmd *cobra.Command) (model.BatchFilter, error) {
	fromStr, _ := cmd.Flags().GetString("date-from")
	toStr, _ := cmd.Flags().GetString("date-to")

	var f model.BatchFilter
	var err error
	if f.DateFrom, err = parseDay(fromStr, false); err != nil {
		return f, err
	}
	if f.DateTo, err = parseDay(toStr, true); err != nil {
		return f, err
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return f, fmt.Errorf("%w: --date-from %s is after --date-to %s", reclassify.ErrInvalidFilter, fromStr, toStr)
	}
	return f, nil
}
