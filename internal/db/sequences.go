package db

import (
	"database/sql"
	"fmt"
)

// Executor is the subset of *sql.Tx / *sql.DB the allocators need. Callers
// allocating ids for writes must pass the enclosing transaction so the max+1
// read and the insert commit together.
type Executor interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NextActorSeq returns the next friendly-id sequence number for actors.
func NextActorSeq(exec Executor) (int, error) {
	return nextPrefixedSeq(exec, "actors", "A-")
}

// NextTransactionSeq returns the next friendly-id sequence number for
// transactions.
func NextTransactionSeq(exec Executor) (int, error) {
	return nextPrefixedSeq(exec, "transactions", "TXN-")
}

// NextInstanceID allocates the next task-instance id for a transaction.
// Instance ids are unique per transaction and monotonically assigned as
// max(existing)+1.
func NextInstanceID(exec Executor, transactionUUID string) (int, error) {
	var maxID int
	err := exec.QueryRow(
		"SELECT COALESCE(MAX(instance_id), 0) FROM task_instances WHERE transaction_uuid = ?",
		transactionUUID,
	).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate instance id: %w", err)
	}
	return maxID + 1, nil
}

// NextTemplateTaskID allocates the next template task id within its
// (state, transaction type, stage) scope. Task ids are never global.
func NextTemplateTaskID(exec Executor, stateCode, txnType string, stageID int) (int, error) {
	var maxID int
	err := exec.QueryRow(
		"SELECT COALESCE(MAX(task_id), 0) FROM task_templates WHERE state_code = ? AND txn_type = ? AND stage_id = ?",
		stateCode, txnType, stageID,
	).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate template task id: %w", err)
	}
	return maxID + 1, nil
}

func nextPrefixedSeq(exec Executor, table, prefix string) (int, error) {
	startPos := len(prefix) + 1
	query := fmt.Sprintf(
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, ?) AS INTEGER)), 0) FROM %s WHERE id LIKE ?",
		table,
	)
	var maxID int
	if err := exec.QueryRow(query, startPos, prefix+"%").Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to compute max id for %s: %w", table, err)
	}
	return maxID + 1, nil
}
