package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/render"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List transactions",
	Args:  cobra.NoArgs,
	RunE:  runLs,
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	txns, err := app.store.Transactions.List()
	if err != nil {
		return err
	}

	if app.renderer.Format() != render.FormatTable {
		return app.renderer.RenderStructured(txns)
	}

	headers := []string{"ID", "ADDRESS", "TYPE", "STATE", "STAGE", "PRICE"}
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			t.ID, t.Slug, string(t.Type), t.StateCode,
			fmt.Sprintf("%d", t.StageID),
			formatPrice(t.PriceCents),
		})
	}
	return app.renderer.RenderTable(headers, rows)
}

func formatPrice(cents int64) string {
	if cents == 0 {
		return "-"
	}
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
