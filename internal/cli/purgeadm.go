package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/actors"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

var purgeAdmCmd = &cobra.Command{
	Use:   "purge <transaction>",
	Short: "Permanently remove a transaction",
	Long: `Purge hard-deletes a transaction and everything hanging off it: task
instances, anchor dates, and event log rows. Unlike 'tms rm' this cannot
be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurgeAdm,
}

var purgeForce bool

func init() {
	rootAdmCmd.AddCommand(purgeAdmCmd)
	purgeAdmCmd.Flags().BoolVar(&purgeForce, "force", false, "Skip confirmation")
}

func runPurgeAdm(cmd *cobra.Command, args []string) error {
	database, err := openAdmDatabase(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.RequiresMigrationError(); err != nil {
		return err
	}

	identifier := cmd.Flag("as").Value.String()
	if identifier == "" {
		return fmt.Errorf("no actor specified (use --as flag)")
	}
	actorUUID, err := actors.NewResolver(database.DB).Resolve(identifier)
	if err != nil {
		return fmt.Errorf("failed to resolve actor: %w", err)
	}

	s := store.New(database)
	txnUUID, err := s.Transactions.Resolve(args[0])
	if err != nil {
		return err
	}

	if !purgeForce {
		fmt.Fprintf(cmd.OutOrStdout(), "Purge %s? This cannot be undone. [y/N] ", args[0])
		var answer string
		fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(cmd.OutOrStdout(), "aborted")
			return nil
		}
	}

	if err := s.Transactions.Purge(actorUUID, txnUUID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", args[0])
	return nil
}
