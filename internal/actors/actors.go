// Package actors resolves actor identifiers (slug, friendly id, or UUID) to
// actor rows. Every write in the system carries an explicit actor; there is
// no fallback identity.
package actors

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/id"
)

// Resolver resolves actor identifiers to UUIDs.
type Resolver struct {
	db *sql.DB
}

// NewResolver creates a new actor resolver.
func NewResolver(database *sql.DB) *Resolver {
	return &Resolver{db: database}
}

// Resolve maps an identifier (UUID, friendly id like A-00001, or slug) to an
// actor UUID.
func (r *Resolver) Resolve(identifier string) (string, error) {
	if id.IsUUID(identifier) {
		var actorUUID string
		err := r.db.QueryRow("SELECT uuid FROM actors WHERE uuid = ?", identifier).Scan(&actorUUID)
		if err == sql.ErrNoRows {
			return "", &domain.NotFoundError{Resource: "actor", Key: identifier}
		}
		if err != nil {
			return "", fmt.Errorf("failed to resolve actor: %w", err)
		}
		return actorUUID, nil
	}

	column := "slug"
	if id.IsFriendlyID(identifier) {
		column = "id"
	}

	var actorUUID string
	err := r.db.QueryRow("SELECT uuid FROM actors WHERE "+column+" = ?", identifier).Scan(&actorUUID)
	if err == sql.ErrNoRows {
		return "", &domain.NotFoundError{Resource: "actor", Key: identifier}
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve actor: %w", err)
	}
	return actorUUID, nil
}

// Create inserts a new actor and returns it.
func (r *Resolver) Create(slug, displayName, role string) (*domain.Actor, error) {
	if err := domain.ValidateActorRole(role); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seq, err := db.NextActorSeq(tx)
	if err != nil {
		return nil, err
	}

	actor := &domain.Actor{
		UUID: uuid.NewString(),
		ID:   id.FormatActor(seq),
		Slug: slug,
		Role: role,
	}
	if displayName != "" {
		actor.DisplayName = &displayName
	}

	_, err = tx.Exec(
		"INSERT INTO actors (uuid, id, slug, display_name, role) VALUES (?, ?, ?, ?, ?)",
		actor.UUID, actor.ID, actor.Slug, actor.DisplayName, actor.Role,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create actor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit actor: %w", err)
	}
	return actor, nil
}

// List returns all actors ordered by friendly id.
func (r *Resolver) List() ([]domain.Actor, error) {
	rows, err := r.db.Query("SELECT uuid, id, slug, display_name, role FROM actors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	defer rows.Close()

	var actors []domain.Actor
	for rows.Next() {
		var a domain.Actor
		if err := rows.Scan(&a.UUID, &a.ID, &a.Slug, &a.DisplayName, &a.Role); err != nil {
			return nil, fmt.Errorf("failed to scan actor: %w", err)
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}
