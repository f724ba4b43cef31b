package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/betmanager/betmanager/internal/domain"
	"github.com/betmanager/betmanager/internal/engine"
	"github.com/betmanager/betmanager/internal/registry"
)

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskFinishCmd)

	taskCreateCmd.Flags().StringP("type", "t", "", "Task type value (see 'settings show')")
	taskCreateCmd.Flags().String("house", "", "Betting house name")
	taskCreateCmd.Flags().String("account", "", "Related account name")
	taskCreateCmd.Flags().IntP("quantity", "q", 0, "Units owed (omit for a single-unit task)")
	taskCreateCmd.Flags().StringP("description", "d", "", "Free-text description")
	taskCreateCmd.Flags().String("pix", "", "Payout destination info")
	taskCreateCmd.Flags().String("status", string(domain.TaskPending), "Initial status")

	taskListCmd.Flags().String("status", "", "Filter by status")

	taskEditCmd.Flags().String("account", "", "New related account name")
	taskEditCmd.Flags().IntP("quantity", "q", 0, "New outstanding quantity")
	taskEditCmd.Flags().StringP("description", "d", "", "New description")
	taskEditCmd.Flags().String("pix", "", "New payout destination info")

	taskDeleteCmd.Flags().StringP("reason", "r", "", "Deletion reason")

	taskFinishCmd.Flags().StringArrayP("account", "a", nil, "Delivered account as 'name,email,deposit' (repeatable)")
	taskFinishCmd.Flags().String("pack", "", "Pack id to deduct the delivery from")
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

// ─── task create ────────────────────────────────────────────────────────────

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new task",
	RunE:  runTaskCreate,
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	typ, _ := cmd.Flags().GetString("type")
	house, _ := cmd.Flags().GetString("house")
	accountName, _ := cmd.Flags().GetString("account")
	quantity, _ := cmd.Flags().GetInt("quantity")
	description, _ := cmd.Flags().GetString("description")
	pix, _ := cmd.Flags().GetString("pix")
	status, _ := cmd.Flags().GetString("status")

	if typ != "" && !app.Settings.ValidType(typ) {
		return fmt.Errorf("unknown task type %q — add it with 'betmanager settings type add'", typ)
	}
	if house != "" && !app.Settings.ValidHouse(house) {
		return fmt.Errorf("unknown house %q — add it with 'betmanager settings house add'", house)
	}

	task, err := app.Engine.CreateTask(engine.CreateTaskInput{
		Type:        typ,
		House:       house,
		AccountName: accountName,
		Quantity:    quantity,
		Description: description,
		PixKeyInfo:  pix,
		Status:      domain.TaskStatus(status),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Task %s created (%s)\n", task.ID, domain.StatusLabel(task.Status))
	return nil
}

// ─── task list ──────────────────────────────────────────────────────────────

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

func runTaskList(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	statusFilter, _ := cmd.Flags().GetString("status")
	tasks := app.Engine.Snapshot().Tasks

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tHOUSE\tQTY\tSTATUS\tUPDATED")
	for _, t := range tasks {
		if statusFilter != "" && string(t.Status) != statusFilter {
			continue
		}
		qty := "-"
		if t.Quantity > 0 {
			qty = strconv.Itoa(t.Quantity)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Type, t.House, qty, t.Status, t.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// ─── task status ────────────────────────────────────────────────────────────

var taskStatusCmd = &cobra.Command{
	Use:   "status TASK_ID NEW_STATUS",
	Short: "Change a task's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskStatus,
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	task, err := app.Engine.ChangeStatus(args[0], domain.TaskStatus(strings.ToUpper(args[1])))
	if err != nil {
		return err
	}
	fmt.Printf("Task %s is now %s\n", task.ID, domain.StatusLabel(task.Status))
	return nil
}

// ─── task edit ──────────────────────────────────────────────────────────────

var taskEditCmd = &cobra.Command{
	Use:   "edit TASK_ID",
	Short: "Edit a task's fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var u registry.TaskUpdate
	if cmd.Flags().Changed("account") {
		v, _ := cmd.Flags().GetString("account")
		u.AccountName = &v
	}
	if cmd.Flags().Changed("quantity") {
		v, _ := cmd.Flags().GetInt("quantity")
		u.Quantity = &v
	}
	if cmd.Flags().Changed("description") {
		v, _ := cmd.Flags().GetString("description")
		u.Description = &v
	}
	if cmd.Flags().Changed("pix") {
		v, _ := cmd.Flags().GetString("pix")
		u.PixKeyInfo = &v
	}

	task, err := app.Engine.EditTask(args[0], u)
	if err != nil {
		return err
	}
	fmt.Printf("Task %s updated\n", task.ID)
	return nil
}

// ─── task delete ────────────────────────────────────────────────────────────

var taskDeleteCmd = &cobra.Command{
	Use:   "delete TASK_ID",
	Short: "Delete a task (logical — the record is kept with a reason)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	reason, _ := cmd.Flags().GetString("reason")
	task, err := app.Engine.DeleteTask(args[0], reason)
	if err != nil {
		return err
	}
	fmt.Printf("Task %s deleted. Reason: %s\n", task.ID, task.DeletionReason)
	return nil
}

// ─── task finish ────────────────────────────────────────────────────────────

var taskFinishCmd = &cobra.Command{
	Use:   "finish TASK_ID",
	Short: "Deliver accounts against a task",
	Long: `Deliver accounts against a task. Each --account flag carries one
delivered account as 'name,email,deposit'. Delivering fewer accounts
than the task still owes records a partial delivery and keeps the task
open with the remainder.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskFinish,
}

func runTaskFinish(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	raw, _ := cmd.Flags().GetStringArray("account")
	packID, _ := cmd.Flags().GetString("pack")

	data := make([]registry.AccountData, 0, len(raw))
	for _, entry := range raw {
		parts := strings.SplitN(entry, ",", 3)
		if len(parts) < 2 {
			return fmt.Errorf("invalid --account %q: expected 'name,email,deposit'", entry)
		}
		d := registry.AccountData{Name: strings.TrimSpace(parts[0]), Email: strings.TrimSpace(parts[1])}
		if len(parts) == 3 {
			v, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
			if err != nil {
				return fmt.Errorf("invalid deposit in --account %q: %w", entry, err)
			}
			d.DepositValue = v
		}
		data = append(data, d)
	}

	res, err := app.Engine.FinishDelivery(args[0], data, packID)
	if err != nil {
		return err
	}
	if res.FullyDelivered {
		fmt.Printf("Task finalized: %d accounts delivered\n", len(res.CreatedAccounts))
	} else {
		fmt.Printf("Partial delivery: %d delivered, %d remaining\n", len(res.CreatedAccounts), res.Remaining)
	}
	if res.PackDeducted {
		fmt.Printf("Pack %s deducted\n", packID)
	}
	return nil
}
