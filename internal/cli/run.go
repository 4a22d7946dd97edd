package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rcliao/media-reclassify/internal/config"
	"github.com/rcliao/media-reclassify/internal/model"
	"github.com/rcliao/media-reclassify/internal/reclassify"
	"github.com/rcliao/media-reclassify/internal/runlog"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reclassify one batch, or every matching attachment with --all",
		Long: "Moves each attachment into <base>/<year>/<month>/ by creation date, moves its variants, " +
			"updates the stored paths and rewrites URLs in content. Use --dry-run to preview.",
		Run: runRun,
	}

	addDateFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Report what would happen without touching files or the database")
	cmd.Flags().IntP("batch-size", "b", 0, "Items per batch, 1-500 (default: config batch_size or 50)")
	cmd.Flags().Int("offset", 0, "Position in the filtered, id-ordered set to start from")
	cmd.Flags().Bool("all", false, "Keep fetching batches until the filtered set is exhausted")
	cmd.Flags().Bool("log", false, "Write a run log file (default: config log.enabled)")
	cmd.Flags().String("log-file", "", "Log file name inside the log directory (default: timestamped)")
	cmd.Flags().Bool("error-only", false, "Log only warnings and errors")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics in text format to this file when done")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	offset, _ := cmd.Flags().GetInt("offset")
	all, _ := cmd.Flags().GetBool("all")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	f, err := dateFilter(cmd)
	if err != nil {
		exitErr("run", err)
	}

	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		exitErr("config", err)
	}
	if !cmd.Flags().Changed("batch-size") {
		batchSize = cfg.BatchSize
	}
	f.Limit = batchSize
	f.Offset = offset

	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	reg := prometheus.NewRegistry()
	opts := []reclassify.Option{reclassify.WithMetrics(reclassify.NewMetrics(reg))}

	rl, err := openRunLog(cmd, cfg)
	if err != nil {
		exitErr("open log", err)
	}
	if rl != nil {
		defer rl.Close()
		opts = append(opts, reclassify.WithLogger(rl.Logger))
		fmt.Fprintf(os.Stderr, "logging to %s (run %s)\n", rl.Path, rl.RunID)
	}

	eng, err := reclassify.New(s, reclassify.Config{UploadDir: cfg.UploadDir, BaseURL: cfg.BaseURL}, opts...)
	if err != nil {
		exitErr("run", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if all {
		runAll(ctx, eng, f, reclassify.Options{DryRun: dryRun})
	} else {
		res, err := eng.ProcessBatch(ctx, f, reclassify.Options{DryRun: dryRun})
		if err != nil {
			exitErr("run", err)
		}
		if textFormat() {
			printBatchText(res)
		} else {
			printJSON(res)
		}
	}

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			exitErr("write metrics", err)
		}
	}
}

func runAll(ctx context.Context, eng *reclassify.Engine, f model.BatchFilter, opts reclassify.Options) {
	sum, err := eng.ProcessAll(ctx, f, opts, func(res *reclassify.BatchResult, sum reclassify.Summary) {
		fmt.Fprintf(os.Stderr, "processed %d/%d (success %d, error %d, skipped %d)\n",
			sum.Processed, sum.Count, sum.Success, sum.Error, sum.Skipped)
	})
	if err != nil && sum.Batches == 0 {
		exitErr("run", err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "stopped after %d batches: %v\n", sum.Batches, err)
	}

	log := eng.Log()
	if textFormat() {
		printSummaryText(sum, opts.DryRun)
		printLedgerText(log)
		return
	}
	printJSON(struct {
		DryRun  bool                   `json:"dry_run,omitempty"`
		Summary reclassify.Summary     `json:"summary"`
		Log     reclassify.LogSnapshot `json:"log"`
	}{opts.DryRun, sum, log})
}

// openRunLog opens the durable run log when --log, --log-file or log.enabled
// is set. Returns nil otherwise.
func openRunLog(cmd *cobra.Command, cfg config.Config) (*runlog.Log, error) {
	name, _ := cmd.Flags().GetString("log-file")
	enabled := cfg.Log.Enabled || name != ""
	if cmd.Flags().Changed("log") {
		enabled, _ = cmd.Flags().GetBool("log")
	}
	if !enabled {
		return nil, nil
	}

	errorOnly := cfg.Log.ErrorOnly
	if cmd.Flags().Changed("error-only") {
		errorOnly, _ = cmd.Flags().GetBool("error-only")
	}
	return runlog.Open(runlog.Options{Dir: cfg.Log.Dir, FileName: name, ErrorOnly: errorOnly})
}
