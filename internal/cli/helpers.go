package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/actors"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/config"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/render"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

// appContext carries the per-invocation state every command needs.
type appContext struct {
	cfg      *config.Config
	db       *db.DB
	store    *store.Store
	renderer *render.Renderer
}

func (a *appContext) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// bootstrap loads config, opens the database, and refuses to run against a
// schema with pending migrations.
func bootstrap(cmd *cobra.Command) (*appContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dbPath := cmd.Flag("db").Value.String(); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if output := cmd.Flag("output").Value.String(); output != "" {
		cfg.Output = output
	}

	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.RequiresMigrationError(); err != nil {
		database.Close()
		return nil, err
	}

	return &appContext{
		cfg:      cfg,
		db:       database,
		store:    store.New(database),
		renderer: render.NewRenderer(cmd.OutOrStdout(), format),
	}, nil
}

// resolveCurrentActor resolves the acting actor's UUID from the --as flag,
// environment, or config. An unconfigured actor is an error: writes never
// fall back to an implicit identity.
func resolveCurrentActor(app *appContext, cmd *cobra.Command) (string, error) {
	identifier := cmd.Flag("as").Value.String()
	if identifier == "" {
		identifier = app.cfg.GetActorID()
	}
	if identifier == "" {
		return "", fmt.Errorf("no actor configured (set TMS_ACTOR, TMS_ACTOR_ID, or use --as flag)")
	}

	resolver := actors.NewResolver(app.db.DB)
	actorUUID, err := resolver.Resolve(identifier)
	if err != nil {
		return "", fmt.Errorf("failed to resolve actor: %w", err)
	}
	return actorUUID, nil
}

// resolveTransaction maps a UUID, friendly id, or address slug argument to a
// transaction UUID.
func resolveTransaction(app *appContext, identifier string) (string, error) {
	return app.store.Transactions.Resolve(identifier)
}
