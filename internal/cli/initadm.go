package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/actors"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/address"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/catalog"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/config"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

var initAdmCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the tms database",
	Long: `Initialize creates the SQLite database, runs migrations, and seeds a
default actor plus the built-in task-template catalog.`,
	RunE: runInitAdm,
}

var (
	initAdmActorSlug string
	initAdmActorName string
	initAdmSkipSeed  bool
)

func init() {
	rootAdmCmd.AddCommand(initAdmCmd)

	initAdmCmd.Flags().StringVar(&initAdmActorSlug, "actor-slug", "local-agent", "Slug for the default actor")
	initAdmCmd.Flags().StringVar(&initAdmActorName, "actor-name", "Local Agent", "Display name for the default actor")
	initAdmCmd.Flags().BoolVar(&initAdmSkipSeed, "skip-seed", false, "Skip seeding the built-in template catalog")
}

func runInitAdm(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dbPath := cmd.Flag("db").Value.String(); dbPath != "" {
		cfg.DBPath = dbPath
	}

	dbExists := false
	if _, err := os.Stat(cfg.DBPath); err == nil {
		dbExists = true
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if dbExists {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Database already initialized at %s\n", cfg.DBPath)
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Migrations applied")
		return nil
	}

	slug, err := address.Slug(initAdmActorSlug)
	if err != nil {
		return fmt.Errorf("invalid actor slug: %w", err)
	}

	actor, err := actors.NewResolver(database.DB).Create(slug, initAdmActorName, "agent")
	if err != nil {
		return fmt.Errorf("failed to create default actor: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Initialized new database at %s\n", cfg.DBPath)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Seeded default actor: %s\n", slug)

	if !initAdmSkipSeed {
		result, err := catalog.Seed(store.New(database), actor.UUID)
		if err != nil {
			return fmt.Errorf("failed to seed template catalog: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Seeded template catalog (%d templates)\n", result.Created)
	}

	return nil
}
