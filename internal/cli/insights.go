package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/betmanager/betmanager/internal/domain"
	"github.com/betmanager/betmanager/internal/insights"
)

func init() {
	rootCmd.AddCommand(insightsCmd)
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show operation-wide metrics",
	RunE:  runInsights,
}

func runInsights(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	st := app.Engine.Snapshot()
	houses := app.Settings.Houses()

	sum := insights.Summarize(st)
	fmt.Printf("Total deposited:  %s\n", domain.FormatMoney(sum.TotalDeposited))
	fmt.Printf("Active accounts:  %d\n", sum.ActiveAccounts)
	fmt.Printf("Limited accounts: %d\n", sum.LimitedAccounts)
	fmt.Printf("Pending tasks:    %d\n", sum.PendingTasks)
	fmt.Printf("Completion rate:  %d%%\n", sum.CompletionRate)

	if dist := insights.StatusDistribution(st); len(dist) > 0 {
		fmt.Println("\nTask status distribution:")
		for _, d := range dist {
			fmt.Printf("  %-10s %d\n", d.Label, d.Count)
		}
	}

	if deposits := insights.DepositsByHouse(st, houses); len(deposits) > 0 {
		fmt.Println("\nDeposits by house:")
		for _, d := range deposits {
			fmt.Printf("  %-15s %s\n", d.House, domain.FormatMoney(d.Value))
		}
	}

	volume := insights.VolumeByHouse(st, houses)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nHOUSE\tTASKS\tACCOUNTS")
	for _, v := range volume {
		fmt.Fprintf(w, "%s\t%d\t%d\n", v.House, v.Tasks, v.Accounts)
	}
	return w.Flush()
}
