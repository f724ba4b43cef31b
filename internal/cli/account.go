package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/betmanager/betmanager/internal/domain"
)

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountEditCmd)
	accountCmd.AddCommand(accountLimitCmd)
	accountCmd.AddCommand(accountReplaceCmd)

	accountListCmd.Flags().String("status", "", "Filter by status (ACTIVE, LIMITED, REPLACEMENT)")

	for _, c := range []*cobra.Command{accountAddCmd, accountEditCmd} {
		c.Flags().String("name", "", "Account holder name")
		c.Flags().String("email", "", "Account email")
		c.Flags().String("house", "", "Betting house name")
		c.Flags().Float64("deposit", 0, "Deposit value")
		c.Flags().String("password", "", "Account password")
		c.Flags().String("card", "", "Card reference")
		c.Flags().String("owner", "", "Owning user")
		c.Flags().StringSlice("tags", nil, "Free-form tags")
	}
	accountAddCmd.Flags().String("pack", "", "Pack id to attribute this account to")

	for _, c := range []*cobra.Command{accountLimitCmd, accountReplaceCmd} {
		c.Flags().Bool("withdrawal", false, "Also create a pending withdrawal task")
		c.Flags().String("pix", "", "Payout destination for the withdrawal task")
	}
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage betting-house accounts",
}

// ─── account list ───────────────────────────────────────────────────────────

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE:  runAccountList,
}

func runAccountList(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	statusFilter, _ := cmd.Flags().GetString("status")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tHOUSE\tDEPOSIT\tSTATUS\tPACK\tTAGS")
	for _, a := range app.Engine.Snapshot().Accounts {
		if statusFilter != "" && string(a.Status) != statusFilter {
			continue
		}
		pack := a.PackID
		if pack == "" {
			pack = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Name, a.House, domain.FormatMoney(a.DepositValue), a.Status, pack, strings.Join(a.Tags, ","))
	}
	return w.Flush()
}

// ─── account add ────────────────────────────────────────────────────────────

var accountAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an account manually",
	RunE:  runAccountAdd,
}

func runAccountAdd(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	acc := accountFromFlags(cmd, domain.Account{})
	packID, _ := cmd.Flags().GetString("pack")

	created, err := app.Engine.SaveAccount(acc, packID)
	if err != nil {
		return err
	}
	fmt.Printf("Account %s registered (%s at %s)\n", created.ID, created.Name, created.House)
	return nil
}

// ─── account edit ───────────────────────────────────────────────────────────

var accountEditCmd = &cobra.Command{
	Use:   "edit ACCOUNT_ID",
	Short: "Edit an account's data",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountEdit,
}

func runAccountEdit(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	// Overlay changed flags onto the current record so untouched
	// fields survive the save.
	var current domain.Account
	found := false
	for _, a := range app.Engine.Snapshot().Accounts {
		if a.ID == args[0] {
			current = a
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, args[0])
	}

	acc := accountFromFlags(cmd, current)
	acc.ID = args[0]
	updated, err := app.Engine.SaveAccount(acc, "")
	if err != nil {
		return err
	}
	fmt.Printf("Account %s updated\n", updated.ID)
	return nil
}

func accountFromFlags(cmd *cobra.Command, base domain.Account) domain.Account {
	if cmd.Flags().Changed("name") {
		base.Name, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("email") {
		base.Email, _ = cmd.Flags().GetString("email")
	}
	if cmd.Flags().Changed("house") {
		base.House, _ = cmd.Flags().GetString("house")
	}
	if cmd.Flags().Changed("deposit") {
		base.DepositValue, _ = cmd.Flags().GetFloat64("deposit")
	}
	if cmd.Flags().Changed("password") {
		base.Password, _ = cmd.Flags().GetString("password")
	}
	if cmd.Flags().Changed("card") {
		base.Card, _ = cmd.Flags().GetString("card")
	}
	if cmd.Flags().Changed("owner") {
		base.Owner, _ = cmd.Flags().GetString("owner")
	}
	if cmd.Flags().Changed("tags") {
		base.Tags, _ = cmd.Flags().GetStringSlice("tags")
	}
	return base
}

// ─── account limit ──────────────────────────────────────────────────────────

var accountLimitCmd = &cobra.Command{
	Use:   "limit ACCOUNT_ID",
	Short: "Mark an account as LIMITED",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountLimit,
}

func runAccountLimit(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	withdrawal, _ := cmd.Flags().GetBool("withdrawal")
	pix, _ := cmd.Flags().GetString("pix")

	acc, err := app.Engine.LimitAccount(args[0], withdrawal, pix)
	if err != nil {
		return err
	}
	fmt.Printf("Account %s marked as LIMITED\n", acc.Name)
	if withdrawal {
		fmt.Println("Withdrawal task created")
	}
	return nil
}

// ─── account replace ────────────────────────────────────────────────────────

var accountReplaceCmd = &cobra.Command{
	Use:   "replace ACCOUNT_ID",
	Short: "Mark an account for REPLACEMENT",
	Long: `Mark an account for replacement. If the account was attributed to a
pack, the pack gets one unit of capacity back and reopens.`,
	Args: cobra.ExactArgs(1),
	RunE: runAccountReplace,
}

func runAccountReplace(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	withdrawal, _ := cmd.Flags().GetBool("withdrawal")
	pix, _ := cmd.Flags().GetString("pix")

	acc, err := app.Engine.MarkReplacement(args[0], withdrawal, pix)
	if err != nil {
		return err
	}
	fmt.Printf("Account %s marked for REPLACEMENT\n", acc.Name)
	if withdrawal {
		fmt.Println("Withdrawal task created")
	}
	return nil
}
