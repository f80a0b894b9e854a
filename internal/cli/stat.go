package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/render"
)

var statCmd = &cobra.Command{
	Use:   "stat <transaction>",
	Short: "Show a transaction's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func init() {
	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	txnUUID, err := resolveTransaction(app, args[0])
	if err != nil {
		return err
	}

	txn, err := app.store.Transactions.GetByUUID(txnUUID)
	if err != nil {
		return err
	}

	if app.renderer.Format() != render.FormatTable {
		return app.renderer.RenderStructured(txn)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:      %s\n", txn.ID)
	fmt.Fprintf(out, "uuid:    %s\n", txn.UUID)
	fmt.Fprintf(out, "address: %s\n", txn.Slug)
	fmt.Fprintf(out, "type:    %s\n", txn.Type)
	fmt.Fprintf(out, "state:   %s\n", txn.StateCode)
	fmt.Fprintf(out, "stage:   %d\n", txn.StageID)
	fmt.Fprintf(out, "price:   %s\n", formatPrice(txn.PriceCents))
	fmt.Fprintf(out, "etag:    %d\n", txn.ETag)
	return nil
}
