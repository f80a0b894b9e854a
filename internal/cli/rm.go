package cli

import (
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <transaction>",
	Short: "Delete a transaction",
	Long: `Soft-deletes a transaction. It disappears from listings but its history
is kept; 'tmsadm purge' removes it permanently.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
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

	return app.store.Transactions.Delete(actorUUID, txnUUID)
}
