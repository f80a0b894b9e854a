package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/notify"
)

var stageCmd = &cobra.Command{
	Use:   "stage <transaction> <target-stage>",
	Short: "Move a transaction to another stage",
	Long: `Moves a transaction between workflow stages. The move is guarded: if the
transaction's stage changed since you last looked (another agent moved it),
the command fails and nothing is written. Pass --from to assert the stage
you saw; it defaults to the current stage.

Forward moves carry the current stage's anchor dates into the target stage
(dates already entered there are kept) and schedule the target's repeatable
tasks whose anchor is now known. Backward moves only change the stage.`,
	Args: cobra.ExactArgs(2),
	RunE: runStage,
}

var stageFrom int

func init() {
	rootCmd.AddCommand(stageCmd)
	stageCmd.Flags().IntVar(&stageFrom, "from", 0, "Stage you expect the transaction to be at")
}

func runStage(cmd *cobra.Command, args []string) error {
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

	var target int
	if _, err := fmt.Sscanf(args[1], "%d", &target); err != nil {
		return fmt.Errorf("invalid target stage %q", args[1])
	}

	from := stageFrom
	if from == 0 {
		txn, err := app.store.Transactions.GetByUUID(txnUUID)
		if err != nil {
			return err
		}
		from = txn.StageID
	}

	if err := app.store.Transactions.Transition(actorUUID, txnUUID, from, target); err != nil {
		return err
	}

	notify.DispatchStageChange(app.db, app.cfg.WebhookURLs, txnUUID, from, target)

	fmt.Fprintf(cmd.OutOrStdout(), "stage %d -> %d\n", from, target)
	return nil
}
