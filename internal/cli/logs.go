package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rcliao/media-reclassify/internal/runlog"
	"github.com/spf13/cobra"
)

var logDirFlag string

func init() {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Manage run log files",
	}
	logsCmd.PersistentFlags().StringVar(&logDirFlag, "dir", "", "Log directory (default: config log.dir or <uploads>/media-reclassify-logs)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List log files, newest first",
		Run:   runLogsList,
	}

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Print the end of a log file",
		Args:  cobra.ExactArgs(1),
		Run:   runLogsShow,
	}
	showCmd.Flags().IntP("lines", "n", 100, "Number of lines from the end (0 for all)")

	rmCmd := &cobra.Command{
		Use:   "rm [name]",
		Short: "Delete a log file",
		Args:  cobra.ExactArgs(1),
		Run:   runLogsRm,
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete log files older than the retention period",
		Run:   runLogsPrune,
	}
	pruneCmd.Flags().Int("days", 0, "Retention in days (default: config log.retention_days or 30)")

	logsCmd.AddCommand(listCmd, showCmd, rmCmd, pruneCmd)
	RootCmd.AddCommand(logsCmd)
}

func logDir() string {
	if logDirFlag != "" {
		return logDirFlag
	}
	cfg := loadConfig()
	if cfg.Log.Dir == "" {
		exitErr("logs", fmt.Errorf("log directory unknown: set --dir, --uploads or log.dir"))
	}
	return cfg.Log.Dir
}

func runLogsList(cmd *cobra.Command, args []string) {
	files, err := runlog.List(logDir())
	if err != nil {
		exitErr("list logs", err)
	}

	if !textFormat() {
		if len(files) == 0 {
			fmt.Println("[]")
			return
		}
		printJSON(files)
		return
	}
	for _, f := range files {
		fmt.Printf("%-45s %10s  %s\n", f.Name, humanize.Bytes(uint64(f.Size)), humanize.Time(f.Modified))
	}
}

func runLogsShow(cmd *cobra.Command, args []string) {
	lines, _ := cmd.Flags().GetInt("lines")

	out, err := runlog.Tail(logDir(), args[0], lines)
	if err != nil {
		exitErr("show log", err)
	}
	fmt.Println(out)
}

func runLogsRm(cmd *cobra.Command, args []string) {
	if err := runlog.Remove(logDir(), args[0]); err != nil {
		exitErr("rm log", err)
	}
	fmt.Printf(`{"ok":true,"removed":%q}`+"\n", args[0])
}

func runLogsPrune(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = loadConfig().Log.RetentionDays
	}

	n, err := runlog.Prune(logDir(), time.Duration(days)*24*time.Hour, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "removed %d log files, some could not be deleted\n", n)
		exitErr("prune logs", err)
	}
	fmt.Printf(`{"ok":true,"removed":%d,"days":%d}`+"\n", n, days)
}
