package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/betmanager/betmanager/internal/domain"
)

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.AddCommand(packCreateCmd)
	packCmd.AddCommand(packListCmd)

	packCreateCmd.Flags().String("house", "", "Betting house name")
	packCreateCmd.Flags().IntP("quantity", "q", 0, "Number of accounts purchased")
	packCreateCmd.Flags().Float64P("price", "p", 0, "Batch price")

	packListCmd.Flags().String("status", "", "Filter by status (ACTIVE or COMPLETED)")
}

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage purchased account packs",
}

var packCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a purchased pack",
	RunE:  runPackCreate,
}

func runPackCreate(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	house, _ := cmd.Flags().GetString("house")
	quantity, _ := cmd.Flags().GetInt("quantity")
	price, _ := cmd.Flags().GetFloat64("price")

	pack, err := app.Engine.CreatePack(house, quantity, price)
	if err != nil {
		return err
	}
	fmt.Printf("Pack %s created: %d accounts from %s at %s\n",
		pack.ID, pack.Quantity, pack.House, domain.FormatMoney(pack.Price))
	return nil
}

var packListCmd = &cobra.Command{
	Use:   "list",
	Short: "List packs with delivery progress",
	RunE:  runPackList,
}

func runPackList(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	statusFilter, _ := cmd.Flags().GetString("status")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHOUSE\tDELIVERED\tPRICE\tPROGRESS\tSTATUS")
	for _, p := range app.Engine.Snapshot().Packs {
		if statusFilter != "" && string(p.Status) != statusFilter {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%d%%\t%s\n",
			p.ID, p.House, p.Delivered, p.Quantity, domain.FormatMoney(p.Price), p.Progress(), p.Status)
	}
	return w.Flush()
}
