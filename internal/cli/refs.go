package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "refs [url]",
		Short: "Find content referencing a URL",
		Long:  "List content bodies and content meta values that contain the URL as an exact substring.",
		Args:  cobra.ExactArgs(1),
		Run:   runRefs,
	}

	cmd.Flags().IntP("limit", "l", 50, "Max results")

	RootCmd.AddCommand(cmd)
}

func runRefs(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	refs, err := s.FindReferences(cmd.Context(), args[0], limit)
	if err != nil {
		exitErr("refs", err)
	}

	if textFormat() {
		for _, r := range refs {
			if r.Key != "" {
				fmt.Printf("%s #%d (content %d, %s): %s\n", r.Table, r.RowID, r.ContentID, r.Key, r.Excerpt)
				continue
			}
			fmt.Printf("%s #%d: %s\n", r.Table, r.RowID, r.Excerpt)
		}
		return
	}

	if len(refs) == 0 {
		fmt.Println("[]")
		return
	}
	printJSON(refs)
}
