package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsHouseCmd)
	settingsCmd.AddCommand(settingsTypeCmd)
	settingsCmd.AddCommand(settingsPixCmd)
	settingsCmd.AddCommand(settingsResetCmd)

	settingsHouseCmd.AddCommand(settingsHouseAddCmd)
	settingsHouseCmd.AddCommand(settingsHouseRemoveCmd)
	settingsTypeCmd.AddCommand(settingsTypeAddCmd)
	settingsTypeCmd.AddCommand(settingsTypeRemoveCmd)
	settingsPixCmd.AddCommand(settingsPixAddCmd)
	settingsPixCmd.AddCommand(settingsPixRemoveCmd)

	settingsPixAddCmd.Flags().String("name", "", "Holder name or identifier")
	settingsPixAddCmd.Flags().String("bank", "", "Bank name")
	settingsPixAddCmd.Flags().String("type", "CPF", "Key type: CPF, CNPJ, EMAIL, TELEFONE or ALEATORIA")
	settingsPixAddCmd.Flags().String("key", "", "The pix key itself")
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage houses, task types and pix keys",
}

// ─── settings show ──────────────────────────────────────────────────────────

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE:  runSettingsShow,
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println("Houses:")
	for _, h := range app.Settings.Houses() {
		fmt.Printf("  %s\n", h)
	}
	fmt.Println("\nTask types:")
	for _, t := range app.Settings.TaskTypes() {
		fmt.Printf("  %-20s %s\n", t.Value, t.Label)
	}
	keys := app.Settings.PixKeys()
	if len(keys) > 0 {
		fmt.Println("\nPix keys:")
		for _, k := range keys {
			fmt.Printf("  %s  %s (%s, %s)\n", k.ID, k.Name, k.Bank, k.KeyType)
		}
	}
	return nil
}

// ─── settings house ─────────────────────────────────────────────────────────

var settingsHouseCmd = &cobra.Command{
	Use:   "house",
	Short: "Manage the configured houses",
}

var settingsHouseAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a house",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.Settings.AddHouse(args[0]); err != nil {
			return err
		}
		fmt.Printf("House %q added\n", args[0])
		return nil
	},
}

var settingsHouseRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a house",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.Settings.RemoveHouse(args[0]); err != nil {
			return err
		}
		fmt.Printf("House %q removed\n", args[0])
		return nil
	},
}

// ─── settings type ──────────────────────────────────────────────────────────

var settingsTypeCmd = &cobra.Command{
	Use:   "type",
	Short: "Manage the configured task types",
}

var settingsTypeAddCmd = &cobra.Command{
	Use:   "add LABEL",
	Short: "Add a task type (the value is derived from the label)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		opt, err := app.Settings.AddTaskType(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Task type %s added (value %s)\n", opt.Label, opt.Value)
		return nil
	},
}

var settingsTypeRemoveCmd = &cobra.Command{
	Use:   "remove VALUE",
	Short: "Remove a task type by value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.Settings.RemoveTaskType(args[0]); err != nil {
			return err
		}
		fmt.Printf("Task type %s removed\n", args[0])
		return nil
	},
}

// ─── settings pix ───────────────────────────────────────────────────────────

var settingsPixCmd = &cobra.Command{
	Use:   "pix",
	Short: "Manage payout pix keys",
}

var settingsPixAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a pix key",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		name, _ := cmd.Flags().GetString("name")
		bank, _ := cmd.Flags().GetString("bank")
		keyType, _ := cmd.Flags().GetString("type")
		key, _ := cmd.Flags().GetString("key")

		pk, err := app.Settings.AddPixKey(name, bank, keyType, key)
		if err != nil {
			return err
		}
		fmt.Printf("Pix key %s added for %s\n", pk.ID, pk.Name)
		return nil
	},
}

var settingsPixRemoveCmd = &cobra.Command{
	Use:   "remove KEY_ID",
	Short: "Remove a pix key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.Settings.RemovePixKey(args[0]); err != nil {
			return err
		}
		fmt.Printf("Pix key %s removed\n", args[0])
		return nil
	},
}

// ─── settings reset ─────────────────────────────────────────────────────────

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore factory-default houses and task types",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.Settings.ResetDefaults(); err != nil {
			return err
		}
		fmt.Println("Factory defaults restored")
		return nil
	},
}
