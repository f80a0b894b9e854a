package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/catalog"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/render"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage the task-template catalog",
}

var templatesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List task templates",
	Args:  cobra.NoArgs,
	RunE:  runTemplatesLs,
}

var templatesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the catalog to YAML (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTemplatesExport,
}

var templatesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML catalog",
	Long: `Applies a catalog file. Entries with a task_id update the matching
template; entries without one are created with a fresh id.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplatesImport,
}

var templatesDiffCmd = &cobra.Command{
	Use:   "diff <file>",
	Short: "Diff the database catalog against a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesDiff,
}

var templatesRmCmd = &cobra.Command{
	Use:   "rm <task-id>",
	Short: "Remove a template from the catalog",
	Long: `Deletes a template. Task instances already materialized from it keep
their name snapshot but lose the anchor linkage for due-date resolution.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplatesRm,
}

var (
	templateState string
	templateType  string
	templateStage int
)

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesLsCmd)
	templatesCmd.AddCommand(templatesExportCmd)
	templatesCmd.AddCommand(templatesImportCmd)
	templatesCmd.AddCommand(templatesDiffCmd)
	templatesCmd.AddCommand(templatesRmCmd)

	templatesRmCmd.Flags().StringVar(&templateState, "state", "", "Two-letter state code (required)")
	templatesRmCmd.Flags().StringVar(&templateType, "type", "listing", "Transaction type: listing or buyer")
	templatesRmCmd.Flags().IntVar(&templateStage, "stage", 0, "Stage the template belongs to (required)")
}

func runTemplatesLs(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	templates, err := app.store.Templates.ListAll()
	if err != nil {
		return err
	}

	if app.renderer.Format() != render.FormatTable {
		return app.renderer.RenderStructured(templates)
	}

	headers := []string{"STATE", "TYPE", "STAGE", "TASK", "NAME", "FIELD", "OFFSET", "REPEAT"}
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		repeat := "-"
		if t.Repeat.Repeats() {
			repeat = fmt.Sprintf("%dx every %d %s", t.Repeat.Frequency, t.Repeat.Interval, t.Repeat.Unit)
		}
		rows = append(rows, []string{
			t.StateCode, string(t.Type),
			strconv.Itoa(t.StageID), strconv.Itoa(t.TaskID),
			t.Name, strconv.Itoa(t.FieldID), strconv.Itoa(t.OffsetDays), repeat,
		})
	}
	return app.renderer.RenderTable(headers, rows)
}

func runTemplatesExport(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	data, err := catalog.Export(app.store)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return os.WriteFile(args[0], data, 0644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runTemplatesImport(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	result, err := catalog.Import(app.store, actorUUID, data)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d\n", result.Created, result.Updated)
	return nil
}

func runTemplatesRm(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}

	taskID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid task id %q", args[0])
	}
	if templateState == "" || templateStage == 0 {
		return fmt.Errorf("--state and --stage are required")
	}

	return app.store.Templates.Delete(actorUUID, domain.TemplateKey{
		StateCode: templateState,
		Type:      domain.TransactionType(templateType),
		StageID:   templateStage,
		TaskID:    taskID,
	})
}

func runTemplatesDiff(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	text, err := catalog.Diff(app.store, data)
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "no differences")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
