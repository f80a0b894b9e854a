package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/checklist"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/render"
)

var checklistCmd = &cobra.Command{
	Use:   "checklist <transaction>",
	Short: "Show a transaction's task checklist",
	Long: `Shows the checklist grouped by stage. Each task's due date is the explicit
override when one was set, otherwise the stage's anchor date plus the task's
scheduled offset. Tasks whose anchor date is not entered yet show as pending.`,
	Args: cobra.ExactArgs(1),
	RunE: runChecklist,
}

var checklistExpandCmd = &cobra.Command{
	Use:   "expand <transaction> <stage>",
	Short: "Materialize a stage's task templates",
	Long: `Creates task instances for every template at the stage that has not been
materialized yet. Opening a transaction does this for stage 1; run expand
before (or after) moving to a later stage to populate its checklist.
Already-materialized templates are skipped, so the command is safe to rerun.`,
	Args: cobra.ExactArgs(2),
	RunE: runChecklistExpand,
}

var checklistStage int

func init() {
	rootCmd.AddCommand(checklistCmd)
	checklistCmd.AddCommand(checklistExpandCmd)
	checklistCmd.Flags().IntVar(&checklistStage, "stage", 0, "Limit to one stage (0 = all)")
}

func runChecklistExpand(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}

	txnUUID, err := resolveTransaction(app, args[0])
	if err != nil {
		return err
	}

	var stage int
	if _, err := fmt.Sscanf(args[1], "%d", &stage); err != nil {
		return fmt.Errorf("invalid stage %q", args[1])
	}

	created, err := app.store.Instances.ExpandStage(actorUUID, txnUUID, stage)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "materialized %d tasks at stage %d\n", created, stage)
	return nil
}

func runChecklist(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	txnUUID, err := resolveTransaction(app, args[0])
	if err != nil {
		return err
	}

	cl, err := checklist.Aggregate(app.store, txnUUID, checklistStage)
	if err != nil {
		return err
	}

	if app.renderer.Format() != render.FormatTable {
		return app.renderer.RenderStructured(cl)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s  (stage %d)\n", cl.TransactionID, cl.Slug, cl.CurrentStage)
	for _, stage := range cl.Stages {
		fmt.Fprintf(out, "\nstage %d  (%d/%d done)\n", stage.StageID, stage.Completed, stage.Total)

		headers := []string{"#", "TASK", "DUE", "STATUS", "NOTES"}
		rows := make([][]string, 0, len(stage.Items))
		for _, item := range stage.Items {
			due := "pending"
			if item.Due != nil {
				due = *item.Due
			}
			status := item.Status
			if item.Skipped {
				status = "Skipped"
				if item.SkipReason != nil {
					status = "Skipped: " + *item.SkipReason
				}
			}
			name := item.Name
			if item.Remove {
				name = "[x] " + name
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", item.InstanceID), name, due, status, item.Notes,
			})
		}
		if err := app.renderer.RenderTable(headers, rows); err != nil {
			return err
		}
	}
	return nil
}
