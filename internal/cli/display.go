package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rcliao/media-reclassify/internal/reclassify"
)

// displayLimit caps how many successes and skips the text output lists. Errors are always listed in full.
const displayLimit = 5

func printBatchText(res *reclassify.BatchResult) {
	mode := ""
	if res.DryRun {
		mode = " (dry run)"
	}
	fmt.Printf("Batch at offset %d%s: %d processed, %d success, %d error, %d skipped. Next offset: %d\n",
		res.Offset, mode, res.Total, res.Success, res.Error, res.Skipped, res.NextOffset)

	var success, skipped []reclassify.Outcome
	for _, o := range res.Outcomes {
		switch o.Status() {
		case reclassify.StatusSuccess:
			success = append(success, o)
		case reclassify.StatusSkipped:
			skipped = append(skipped, o)
		}
	}

	printOutcomes("Successful", success, displayLimit)
	for _, o := range res.Outcomes {
		if f, ok := o.(*reclassify.Failure); ok {
			fmt.Printf("  ERROR #%d [%s] %s\n", f.ID, f.Kind, f.Reason)
		}
	}
	printOutcomes("Skipped", skipped, displayLimit)
}

func printOutcomes(title string, list []reclassify.Outcome, limit int) {
	if len(list) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for i, o := range list {
		if i == limit {
			fmt.Printf("  ... and %d more\n", len(list)-limit)
			break
		}
		switch o := o.(type) {
		case *reclassify.Success:
			fmt.Printf("  #%d %s -> %s\n", o.ID, o.OldPath, o.NewPath)
			for _, v := range o.VariantFailures() {
				fmt.Printf("      variant %s not moved: %v\n", v.Name, v.Err)
			}
		default:
			fmt.Printf("  #%d %s\n", o.ItemID(), o.Message())
		}
	}
}

func printSummaryText(sum reclassify.Summary, dryRun bool) {
	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	fmt.Printf("Processed %s of %s attachments in %d batches%s: %s success, %s error, %s skipped\n",
		humanize.Comma(int64(sum.Processed)), humanize.Comma(int64(sum.Count)), sum.Batches, mode,
		humanize.Comma(int64(sum.Success)), humanize.Comma(int64(sum.Error)), humanize.Comma(int64(sum.Skipped)))
}

func printLedgerText(log reclassify.LogSnapshot) {
	printEntries("Successful", log.Success, displayLimit, true)
	printEntries("Errors", log.Error, 0, false)
	printEntries("Skipped", log.Skipped, displayLimit, false)
}

// printEntries lists up to limit entries; limit 0 lists all.
func printEntries(title string, entries []reclassify.LedgerEntry, limit int, paths bool) {
	if len(entries) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n", title, len(entries))
	for i, e := range entries {
		if limit > 0 && i == limit {
			fmt.Printf("  ... and %d more\n", len(entries)-limit)
			break
		}
		if paths {
			fmt.Printf("  #%d %s -> %s\n", e.ID, e.OldPath, e.NewPath)
			continue
		}
		fmt.Printf("  #%d %s\n", e.ID, e.Message)
	}
}
