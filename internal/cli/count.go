package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count attachments matching a date range",
		Run:   runCount,
	}
	addDateFlags(cmd)

	RootCmd.AddCommand(cmd)
}

func runCount(cmd *cobra.Command, args []string) {
	f, err := dateFilter(cmd)
	if err != nil {
		exitErr("count", err)
	}

	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	n, err := s.Count(cmd.Context(), f)
	if err != nil {
		exitErr("count", err)
	}

	if textFormat() {
		fmt.Printf("%d attachments\n", n)
		return
	}
	fmt.Printf(`{"count":%d}`+"\n", n)
}
