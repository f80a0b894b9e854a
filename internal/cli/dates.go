package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/render"
)

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Manage anchor dates",
}

var datesSetCmd = &cobra.Command{
	Use:   "set <transaction> <field-id> <date>",
	Short: "Enter or overwrite an anchor date",
	Long: `Records a date-field value for a stage. Entering a date that already
exists at that stage overwrites it. Tasks at the stage still waiting on
this field get their schedules computed immediately.`,
	Args: cobra.ExactArgs(3),
	RunE: runDatesSet,
}

var datesLsCmd = &cobra.Command{
	Use:   "ls <transaction>",
	Short: "List a transaction's anchor dates",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatesLs,
}

var datesFieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the date-field catalog",
	Args:  cobra.NoArgs,
	RunE:  runDatesFields,
}

var datesStage int

func init() {
	rootCmd.AddCommand(datesCmd)
	datesCmd.AddCommand(datesSetCmd)
	datesCmd.AddCommand(datesLsCmd)
	datesCmd.AddCommand(datesFieldsCmd)
	datesSetCmd.Flags().IntVar(&datesStage, "stage", 0, "Stage to record the date at (default: current stage)")
	datesLsCmd.Flags().IntVar(&datesStage, "stage", 0, "Limit to one stage (0 = all)")
}

func runDatesSet(cmd *cobra.Command, args []string) error {
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

	fieldID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid field id %q", args[1])
	}

	stage := datesStage
	if stage == 0 {
		txn, err := app.store.Transactions.GetByUUID(txnUUID)
		if err != nil {
			return err
		}
		stage = txn.StageID
	}

	if err := app.store.Dates.Set(actorUUID, txnUUID, stage, fieldID, args[2]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "field %d @ stage %d = %s\n", fieldID, stage, args[2])
	return nil
}

func runDatesLs(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	txnUUID, err := resolveTransaction(app, args[0])
	if err != nil {
		return err
	}

	anchors, err := app.store.Dates.List(txnUUID, datesStage)
	if err != nil {
		return err
	}

	if app.renderer.Format() != render.FormatTable {
		return app.renderer.RenderStructured(anchors)
	}

	fields, err := app.store.Dates.Fields()
	if err != nil {
		return err
	}
	names := make(map[int]string, len(fields))
	for _, f := range fields {
		names[f.ID] = f.Name
	}

	headers := []string{"STAGE", "FIELD", "DATE"}
	rows := make([][]string, 0, len(anchors))
	for _, a := range anchors {
		rows = append(rows, []string{
			strconv.Itoa(a.StageID),
			names[a.FieldID],
			a.ValueDate,
		})
	}
	return app.renderer.RenderTable(headers, rows)
}

func runDatesFields(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	fields, err := app.store.Dates.Fields()
	if err != nil {
		return err
	}

	if app.renderer.Format() != render.FormatTable {
		return app.renderer.RenderStructured(fields)
	}

	headers := []string{"ID", "NAME"}
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, []string{strconv.Itoa(f.ID), f.Name})
	}
	return app.renderer.RenderTable(headers, rows)
}
