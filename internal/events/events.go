// Package events writes audit events to the event log, always inside the
// same transaction as the write they describe.
package events

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
)

// Writer handles writing events to the event log
type Writer struct {
	db *sql.DB
}

// NewWriter creates a new event writer
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// LogEvent writes an event to the event log
func (w *Writer) LogEvent(tx *sql.Tx, event *domain.Event) error {
	query := `
		INSERT INTO event_log (actor_uuid, resource_type, resource_uuid, event_type, etag, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	executor := w.getExecutor(tx)
	_, err := executor.Exec(query, event.ActorUUID, event.ResourceType, event.ResourceUUID, event.EventType, event.ETag, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogTransactionCreated logs a transaction creation event
func (w *Writer) LogTransactionCreated(tx *sql.Tx, actorUUID string, txn *domain.Transaction) error {
	payload, err := json.Marshal(map[string]interface{}{
		"slug":       txn.Slug,
		"txn_type":   txn.Type,
		"state_code": txn.StateCode,
		"stage_id":   txn.StageID,
	})
	if err != nil {
		return err
	}

	payloadStr := string(payload)
	return w.LogEvent(tx, &domain.Event{
		ActorUUID:    &actorUUID,
		ResourceType: "transaction",
		ResourceUUID: &txn.UUID,
		EventType:    "transaction.created",
		ETag:         &txn.ETag,
		Payload:      &payloadStr,
	})
}

// LogStageChanged logs a stage transition event
func (w *Writer) LogStageChanged(tx *sql.Tx, actorUUID, txnUUID string, fromStage, toStage int, etag int64) error {
	payload, err := json.Marshal(map[string]interface{}{
		"from_stage": fromStage,
		"to_stage":   toStage,
	})
	if err != nil {
		return err
	}

	payloadStr := string(payload)
	return w.LogEvent(tx, &domain.Event{
		ActorUUID:    &actorUUID,
		ResourceType: "transaction",
		ResourceUUID: &txnUUID,
		EventType:    "transaction.stage_changed",
		ETag:         &etag,
		Payload:      &payloadStr,
	})
}

// LogTaskStatusChanged logs a task-instance status change
func (w *Writer) LogTaskStatusChanged(tx *sql.Tx, actorUUID, txnUUID string, instanceID int, status domain.TaskStatus, skipped bool) error {
	payload, err := json.Marshal(map[string]interface{}{
		"instance_id": instanceID,
		"status":      status,
		"is_skipped":  skipped,
	})
	if err != nil {
		return err
	}

	payloadStr := string(payload)
	return w.LogEvent(tx, &domain.Event{
		ActorUUID:    &actorUUID,
		ResourceType: "task",
		ResourceUUID: &txnUUID,
		EventType:    "task.status_changed",
		Payload:      &payloadStr,
	})
}

// LogAnchorDateSet logs an anchor-date entry or update
func (w *Writer) LogAnchorDateSet(tx *sql.Tx, actorUUID, txnUUID string, stageID, fieldID int, value string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"stage_id":   stageID,
		"field_id":   fieldID,
		"value_date": value,
	})
	if err != nil {
		return err
	}

	payloadStr := string(payload)
	return w.LogEvent(tx, &domain.Event{
		ActorUUID:    &actorUUID,
		ResourceType: "date",
		ResourceUUID: &txnUUID,
		EventType:    "date.set",
		Payload:      &payloadStr,
	})
}

// getExecutor returns the appropriate executor (tx or db)
func (w *Writer) getExecutor(tx *sql.Tx) interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return w.db
}
