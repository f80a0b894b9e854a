// Package store provides the persistence layer for transactions, anchor
// dates, task templates, and task instances. Every mutation runs inside a
// single commit-or-rollback unit that also carries its audit event; no
// partial application of a multi-step transition or expansion is ever
// observable.
package store

import (
	"database/sql"
	"fmt"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/events"
)

// Store is the root store that provides access to domain-specific stores.
type Store struct {
	db *db.DB

	// Domain-specific stores
	Transactions *TransactionStore
	Dates        *DateStore
	Templates    *TemplateStore
	Instances    *InstanceStore
}

// New creates a new Store wrapping the given database connection.
func New(database *db.DB) *Store {
	s := &Store{db: database}
	s.Transactions = &TransactionStore{store: s}
	s.Dates = &DateStore{store: s}
	s.Templates = &TemplateStore{store: s}
	s.Instances = &InstanceStore{store: s}
	return s
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// withTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back.
func (s *Store) withTx(fn func(tx *sql.Tx, ew *events.Writer) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ew := events.NewWriter(s.db.DB)
	if err := fn(tx, ew); err != nil {
		return err
	}

	return tx.Commit()
}

// currentStage reads a transaction's persisted stage and etag inside tx.
func currentStage(tx *sql.Tx, txnUUID string) (stage int, etag int64, err error) {
	err = tx.QueryRow(
		"SELECT stage_id, etag FROM transactions WHERE uuid = ? AND deleted_at IS NULL",
		txnUUID,
	).Scan(&stage, &etag)
	if err == sql.ErrNoRows {
		return 0, 0, &domain.NotFoundError{Resource: "transaction", Key: txnUUID}
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read transaction stage: %w", err)
	}
	return stage, etag, nil
}

// txnScope reads the (state, type) scope used for template lookups inside tx.
func txnScope(tx *sql.Tx, txnUUID string) (stateCode string, txnType string, err error) {
	err = tx.QueryRow(
		"SELECT state_code, txn_type FROM transactions WHERE uuid = ? AND deleted_at IS NULL",
		txnUUID,
	).Scan(&stateCode, &txnType)
	if err == sql.ErrNoRows {
		return "", "", &domain.NotFoundError{Resource: "transaction", Key: txnUUID}
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read transaction scope: %w", err)
	}
	return stateCode, txnType, nil
}
