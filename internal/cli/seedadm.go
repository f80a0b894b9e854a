package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/actors"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/catalog"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

var seedAdmCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in task-template catalog",
	Long: `Seed loads the built-in template catalog into an empty database. If any
templates already exist nothing is written; use 'tms templates import' to
merge a catalog file into a populated database.`,
	RunE: runSeedAdm,
}

func init() {
	rootAdmCmd.AddCommand(seedAdmCmd)
}

func runSeedAdm(cmd *cobra.Command, args []string) error {
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

	result, err := catalog.Seed(store.New(database), actorUUID)
	if err != nil {
		return err
	}

	if result.Created == 0 && result.Updated == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "catalog already has templates, nothing seeded")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d\n", result.Created, result.Updated)
	return nil
}
