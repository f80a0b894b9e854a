package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage task instances",
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <transaction> <instance-id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskDone,
}

var taskReopenCmd = &cobra.Command{
	Use:   "reopen <transaction> <instance-id>",
	Short: "Reopen a completed or skipped task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskReopen,
}

var taskSkipCmd = &cobra.Command{
	Use:   "skip <transaction> <instance-id> <reason>",
	Short: "Skip a task, recording why",
	Long: `Marks a task skipped. The task stays open so it still appears in the
checklist with its reason; completing it later clears the skip.`,
	Args: cobra.ExactArgs(3),
	RunE: runTaskSkip,
}

var taskDueCmd = &cobra.Command{
	Use:   "due <transaction> <instance-id> <date>",
	Short: "Set an explicit due date",
	Long: `Sets a due date directly on the task. An explicit date always wins over
the anchor-derived schedule.`,
	Args: cobra.ExactArgs(3),
	RunE: runTaskDue,
}

var taskNotesCmd = &cobra.Command{
	Use:   "notes <transaction> <instance-id> <text>",
	Short: "Replace a task's notes",
	Args:  cobra.ExactArgs(3),
	RunE:  runTaskNotes,
}

var taskDaysCmd = &cobra.Command{
	Use:   "days <transaction> <instance-id> <days>",
	Short: "Override a task's schedule offset",
	Long: `Sets the task's day offset from its anchor date. The checklist shows
anchor + days as the due date unless an explicit due date is set.`,
	Args: cobra.ExactArgs(3),
	RunE: runTaskDays,
}

var taskDupCmd = &cobra.Command{
	Use:   "dup <transaction> <instance-id>",
	Short: "Duplicate a task at regular intervals",
	Long: `Creates copies of a scheduled task spaced from its due date, e.g.
--count 3 --every 2 --unit week makes three copies two weeks apart.`,
	Args: cobra.ExactArgs(2),
	RunE: runTaskDup,
}

var (
	taskDueNotes string
	dupCount     int
	dupEvery     int
	dupUnit      string
)

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskReopenCmd)
	taskCmd.AddCommand(taskSkipCmd)
	taskCmd.AddCommand(taskDueCmd)
	taskCmd.AddCommand(taskNotesCmd)
	taskCmd.AddCommand(taskDaysCmd)
	taskCmd.AddCommand(taskDupCmd)

	taskDueCmd.Flags().StringVar(&taskDueNotes, "notes", "", "Also replace the task's notes")
	taskDupCmd.Flags().IntVar(&dupCount, "count", 1, "Number of copies")
	taskDupCmd.Flags().IntVar(&dupEvery, "every", 1, "Interval between copies")
	taskDupCmd.Flags().StringVar(&dupUnit, "unit", "week", "Interval unit: day, week, or month")
}

// taskTarget resolves the (transaction UUID, instance id) pair shared by all
// task subcommands.
func taskTarget(app *appContext, txnArg, instanceArg string) (string, int, error) {
	txnUUID, err := resolveTransaction(app, txnArg)
	if err != nil {
		return "", 0, err
	}
	instanceID, err := strconv.Atoi(instanceArg)
	if err != nil {
		return "", 0, fmt.Errorf("invalid instance id %q", instanceArg)
	}
	return txnUUID, instanceID, nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}
	txnUUID, instanceID, err := taskTarget(app, args[0], args[1])
	if err != nil {
		return err
	}

	return app.store.Instances.SetStatus(actorUUID, txnUUID, instanceID, "Completed", "")
}

func runTaskReopen(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}
	txnUUID, instanceID, err := taskTarget(app, args[0], args[1])
	if err != nil {
		return err
	}

	return app.store.Instances.SetStatus(actorUUID, txnUUID, instanceID, "Open", "")
}

func runTaskSkip(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}
	txnUUID, instanceID, err := taskTarget(app, args[0], args[1])
	if err != nil {
		return err
	}

	return app.store.Instances.SetStatus(actorUUID, txnUUID, instanceID, "Open", args[2])
}

func runTaskDue(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}
	txnUUID, instanceID, err := taskTarget(app, args[0], args[1])
	if err != nil {
		return err
	}

	var notes *string
	if cmd.Flags().Changed("notes") {
		notes = &taskDueNotes
	}
	return app.store.Instances.SetDueDate(actorUUID, txnUUID, instanceID, args[2], notes)
}

func runTaskNotes(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}
	txnUUID, instanceID, err := taskTarget(app, args[0], args[1])
	if err != nil {
		return err
	}

	return app.store.Instances.SetNotes(actorUUID, txnUUID, instanceID, args[2])
}

func runTaskDays(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}
	txnUUID, instanceID, err := taskTarget(app, args[0], args[1])
	if err != nil {
		return err
	}

	days, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid day offset %q", args[2])
	}

	return app.store.Instances.SetTaskDays(actorUUID, txnUUID, instanceID, days)
}

func runTaskDup(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}
	txnUUID, instanceID, err := taskTarget(app, args[0], args[1])
	if err != nil {
		return err
	}

	ids, err := app.store.Instances.Duplicate(actorUUID, txnUUID, instanceID, dupCount, dupEvery, dupUnit)
	if err != nil {
		return err
	}

	for _, id := range ids {
		fmt.Fprintf(cmd.OutOrStdout(), "created instance %d\n", id)
	}
	return nil
}
