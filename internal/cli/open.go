package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/address"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

var openCmd = &cobra.Command{
	Use:   "open <address>",
	Short: "Open a new transaction at stage 1",
	Long: `Opens a transaction for a property address. The address is normalized
into the transaction's slug. Stage 1 task templates for the state and
transaction type are materialized immediately; tasks whose anchor date has
not been entered yet stay pending until it is.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

var (
	openType  string
	openState string
	openPrice int64
)

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVar(&openType, "type", "listing", "Transaction type: listing or buyer")
	openCmd.Flags().StringVar(&openState, "state", "", "Two-letter state code (required)")
	openCmd.Flags().Int64Var(&openPrice, "price", 0, "Price in cents")
}

func runOpen(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}

	slug, err := address.Slug(args[0])
	if err != nil {
		return err
	}

	result, err := app.store.Transactions.Open(actorUUID, store.OpenParams{
		Slug:       slug,
		Type:       domain.TransactionType(openType),
		StateCode:  openState,
		PriceCents: openPrice,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t(%d tasks)\n", result.ID, slug, result.InstancesCreated)
	return nil
}
