package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), cfg.DB)
	if err != nil {
		exitErr("stats", err)
	}

	if !textFormat() {
		printJSON(stats)
		return
	}
	fmt.Printf("Database:     %s (%s)\n", stats.DBPath, humanize.Bytes(uint64(stats.DBSizeBytes)))
	fmt.Printf("Attachments:  %s (%s with variants)\n", humanize.Comma(int64(stats.Attachments)), humanize.Comma(int64(stats.WithVariants)))
	fmt.Printf("Content:      %s rows, %s meta values\n", humanize.Comma(int64(stats.Contents)), humanize.Comma(int64(stats.ContentMeta)))
	if stats.OldestCreated != "" {
		fmt.Printf("Created:      %s .. %s\n", stats.OldestCreated, stats.NewestCreated)
	}
	for _, m := range stats.Months {
		fmt.Printf("  %s  %s\n", m.Month, humanize.Comma(int64(m.Count)))
	}
}
