package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum entries to show")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the audit trail (newest first)",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	logs := app.Engine.Snapshot().Logs
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tWHO\tWHAT\tACTION")
	for _, e := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04"), e.User, e.Description, e.Action)
	}
	return w.Flush()
}
