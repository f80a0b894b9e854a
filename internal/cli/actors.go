package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/actors"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/address"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/render"
)

var actorsCmd = &cobra.Command{
	Use:   "actors",
	Short: "Manage actors",
}

var actorsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List actors",
	Args:  cobra.NoArgs,
	RunE:  runActorsLs,
}

var actorsAddCmd = &cobra.Command{
	Use:   "add <slug>",
	Short: "Create an actor",
	Args:  cobra.ExactArgs(1),
	RunE:  runActorsAdd,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the configured actor",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var (
	actorDisplayName string
	actorRole        string
)

func init() {
	rootCmd.AddCommand(actorsCmd)
	rootCmd.AddCommand(whoamiCmd)
	actorsCmd.AddCommand(actorsLsCmd)
	actorsCmd.AddCommand(actorsAddCmd)
	actorsAddCmd.Flags().StringVar(&actorDisplayName, "name", "", "Display name")
	actorsAddCmd.Flags().StringVar(&actorRole, "role", "human", "Role: human, agent, or system")
}

func runActorsLs(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	list, err := actors.NewResolver(app.db.DB).List()
	if err != nil {
		return err
	}

	if app.renderer.Format() != render.FormatTable {
		return app.renderer.RenderStructured(list)
	}

	headers := []string{"ID", "SLUG", "NAME", "ROLE"}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		name := ""
		if a.DisplayName != nil {
			name = *a.DisplayName
		}
		rows = append(rows, []string{a.ID, a.Slug, name, a.Role})
	}
	return app.renderer.RenderTable(headers, rows)
}

func runActorsAdd(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := address.ValidateSlug(args[0]); err != nil {
		return err
	}

	actor, err := actors.NewResolver(app.db.DB).Create(args[0], actorDisplayName, actorRole)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", actor.ID, actor.Slug)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	actorUUID, err := resolveCurrentActor(app, cmd)
	if err != nil {
		return err
	}

	var id, slug string
	if err := app.db.QueryRow("SELECT id, slug FROM actors WHERE uuid = ?", actorUUID).Scan(&id, &slug); err != nil {
		return fmt.Errorf("failed to load actor: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, slug)
	return nil
}
