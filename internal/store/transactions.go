package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/dates"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/events"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/id"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/schedule"
)

// TransactionStore handles transaction persistence and stage transitions.
type TransactionStore struct {
	store *Store
}

// OpenParams contains parameters for opening a new transaction.
type OpenParams struct {
	Slug       string // normalized property address
	Type       domain.TransactionType
	StateCode  string
	PriceCents int64
}

// OpenResult contains the result of opening a transaction.
type OpenResult struct {
	UUID             string
	ID               string
	InstancesCreated int
}

// Open creates a transaction at stage 1 and materializes one task instance
// per template defined for (state, type, stage 1). Templates whose anchor
// date is not yet entered produce pending instances with null task_days.
func (ts *TransactionStore) Open(actorUUID string, params OpenParams) (*OpenResult, error) {
	if err := domain.ValidateUUID(actorUUID); err != nil {
		return nil, &domain.ValidationError{Field: "actor", Reason: "actor UUID is required"}
	}
	if err := domain.ValidateTransactionType(string(params.Type)); err != nil {
		return nil, err
	}
	if err := domain.ValidateStateCode(params.StateCode); err != nil {
		return nil, err
	}
	if params.Slug == "" {
		return nil, &domain.ValidationError{Field: "slug", Reason: "property address is required"}
	}

	var result *OpenResult

	err := ts.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		seq, err := db.NextTransactionSeq(tx)
		if err != nil {
			return err
		}

		txn := &domain.Transaction{
			UUID:       uuid.NewString(),
			ID:         id.FormatTransaction(seq),
			Slug:       params.Slug,
			Type:       params.Type,
			StateCode:  params.StateCode,
			StageID:    1,
			PriceCents: params.PriceCents,
			ETag:       1,
		}

		_, err = tx.Exec(`
			INSERT INTO transactions (uuid, id, slug, txn_type, state_code, stage_id, price_cents, created_by_actor_uuid, updated_by_actor_uuid)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, txn.UUID, txn.ID, txn.Slug, txn.Type, txn.StateCode, txn.StageID, txn.PriceCents, actorUUID, actorUUID)
		if err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		created, err := materializeStage(tx, actorUUID, txn.UUID, txn.StateCode, string(txn.Type), 1)
		if err != nil {
			return err
		}

		if err := ew.LogTransactionCreated(tx, actorUUID, txn); err != nil {
			return err
		}

		result = &OpenResult{UUID: txn.UUID, ID: txn.ID, InstancesCreated: created}
		return nil
	})

	return result, err
}

// Transition moves a transaction from currentStage to targetStage.
//
// The caller's currentStage must match the persisted stage exactly;
// a mismatch means another writer got there first and the whole operation
// fails with StaleStageError, leaving the database untouched.
//
// Forward moves copy the current stage's anchor dates into the target stage
// (first write wins: a value already entered at the target is never
// overwritten) and then fill in task_days for the target stage's pending
// repeatable task groups whose anchor date is now resolved. Backward moves
// only update the stage id; schedules are never re-derived when moving back.
func (ts *TransactionStore) Transition(actorUUID, txnUUID string, currentStageID, targetStageID int) error {
	if err := domain.ValidateStageID(currentStageID); err != nil {
		return err
	}
	if err := domain.ValidateStageID(targetStageID); err != nil {
		return err
	}
	if currentStageID == targetStageID {
		return &domain.ValidationError{Field: "target_stage", Reason: "target stage must differ from current stage"}
	}

	return ts.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		persisted, etag, err := currentStage(tx, txnUUID)
		if err != nil {
			return err
		}
		if persisted != currentStageID {
			return &domain.StaleStageError{TransactionUUID: txnUUID, Expected: currentStageID, Actual: persisted}
		}

		if targetStageID > currentStageID {
			if err := copyAnchorsForward(tx, txnUUID, currentStageID, targetStageID); err != nil {
				return err
			}
			if err := fillPendingTaskDays(tx, actorUUID, txnUUID, targetStageID); err != nil {
				return err
			}
		}

		res, err := tx.Exec(`
			UPDATE transactions
			SET stage_id = ?,
				etag = etag + 1,
				updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
				updated_by_actor_uuid = ?
			WHERE uuid = ? AND stage_id = ?
		`, targetStageID, actorUUID, txnUUID, currentStageID)
		if err != nil {
			return fmt.Errorf("failed to update stage: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check stage update: %w", err)
		}
		if affected != 1 {
			return &domain.StaleStageError{TransactionUUID: txnUUID, Expected: currentStageID, Actual: persisted}
		}

		return ew.LogStageChanged(tx, actorUUID, txnUUID, currentStageID, targetStageID, etag+1)
	})
}

// copyAnchorsForward copies every anchor date recorded at fromStage into
// toStage, preserving all fields except the stage id. A key already present
// at the target wins: ON CONFLICT DO NOTHING.
func copyAnchorsForward(tx *sql.Tx, txnUUID string, fromStage, toStage int) error {
	_, err := tx.Exec(`
		INSERT INTO anchor_dates (transaction_uuid, stage_id, state_code, field_id, value_date, entered_at, entered_by_actor_uuid)
		SELECT transaction_uuid, ?, state_code, field_id, value_date, entered_at, entered_by_actor_uuid
		FROM anchor_dates
		WHERE transaction_uuid = ? AND stage_id = ?
		ON CONFLICT (state_code, field_id, transaction_uuid, stage_id) DO NOTHING
	`, toStage, txnUUID, fromStage)
	if err != nil {
		return fmt.Errorf("failed to copy anchor dates forward: %w", err)
	}
	return nil
}

// pendingInstance is a stage instance awaiting a task_days value, joined to
// its template's scheduling fields.
type pendingInstance struct {
	instanceID     int
	templateTaskID int
	fieldID        int
	offsetDays     int
	repeat         domain.RepeatRule
	pending        bool
}

// fillPendingTaskDays computes task_days for the stage's instances that have
// none yet. Instances are grouped by template task id (one repeat
// configuration per group, ordered by instance id); only repeatable groups
// with a resolved anchor date are filled, everything else stays pending.
func fillPendingTaskDays(tx *sql.Tx, actorUUID, txnUUID string, stageID int) error {
	stateCode, txnType, err := txnScope(tx, txnUUID)
	if err != nil {
		return err
	}

	anchors, err := anchorsByField(tx, txnUUID, stageID)
	if err != nil {
		return err
	}

	// Groups carry every instance, filled or not: the repeat ordinal i is the
	// instance's position within the whole group, so a partially filled group
	// continues its sequence instead of restarting at the base offset.
	rows, err := tx.Query(`
		SELECT ti.instance_id, ti.template_task_id, tt.field_id, tt.offset_days,
		       tt.repeat_frequency, tt.repeat_interval, tt.repeat_unit,
		       ti.task_days IS NULL
		FROM task_instances ti
		JOIN task_templates tt
		  ON tt.state_code = ? AND tt.txn_type = ? AND tt.stage_id = ti.stage_id AND tt.task_id = ti.template_task_id
		WHERE ti.transaction_uuid = ? AND ti.stage_id = ?
		ORDER BY ti.template_task_id, ti.instance_id
	`, stateCode, txnType, txnUUID, stageID)
	if err != nil {
		return fmt.Errorf("failed to query pending instances: %w", err)
	}
	defer rows.Close()

	groups := make(map[int][]pendingInstance)
	var order []int
	for rows.Next() {
		var p pendingInstance
		if err := rows.Scan(&p.instanceID, &p.templateTaskID, &p.fieldID, &p.offsetDays,
			&p.repeat.Frequency, &p.repeat.Interval, &p.repeat.Unit, &p.pending); err != nil {
			return fmt.Errorf("failed to scan pending instance: %w", err)
		}
		if _, seen := groups[p.templateTaskID]; !seen {
			order = append(order, p.templateTaskID)
		}
		groups[p.templateTaskID] = append(groups[p.templateTaskID], p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating pending instances: %w", err)
	}

	for _, taskID := range order {
		group := groups[taskID]
		rule := group[0].repeat
		anchor, haveAnchor := anchors[group[0].fieldID]
		if !rule.Repeats() || !haveAnchor {
			continue
		}

		for i, p := range group {
			if !p.pending {
				continue
			}
			days := p.offsetDays + schedule.DeltaDays(anchor, rule, i)
			_, err := tx.Exec(`
				UPDATE task_instances
				SET task_days = ?,
					updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
					updated_by_actor_uuid = ?
				WHERE transaction_uuid = ? AND instance_id = ?
			`, days, actorUUID, txnUUID, p.instanceID)
			if err != nil {
				return fmt.Errorf("failed to set task_days for instance %d: %w", p.instanceID, err)
			}
		}
	}

	return nil
}

// anchorsByField loads the anchor dates recorded for a stage, keyed by field id.
func anchorsByField(tx *sql.Tx, txnUUID string, stageID int) (map[int]dates.Date, error) {
	rows, err := tx.Query(
		"SELECT field_id, value_date FROM anchor_dates WHERE transaction_uuid = ? AND stage_id = ?",
		txnUUID, stageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query anchor dates: %w", err)
	}
	defer rows.Close()

	anchors := make(map[int]dates.Date)
	for rows.Next() {
		var fieldID int
		var value string
		if err := rows.Scan(&fieldID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan anchor date: %w", err)
		}
		d, err := dates.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt anchor date for field %d: %w", fieldID, err)
		}
		anchors[fieldID] = d
	}
	return anchors, rows.Err()
}

// GetByUUID retrieves a transaction by UUID.
func (ts *TransactionStore) GetByUUID(txnUUID string) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	var createdAt, updatedAt string
	var deletedAt *string

	err := ts.store.db.QueryRow(`
		SELECT uuid, id, slug, txn_type, state_code, stage_id, price_cents, etag,
		       created_at, updated_at, deleted_at,
		       created_by_actor_uuid, updated_by_actor_uuid
		FROM transactions WHERE uuid = ?
	`, txnUUID).Scan(
		&txn.UUID, &txn.ID, &txn.Slug, &txn.Type, &txn.StateCode, &txn.StageID,
		&txn.PriceCents, &txn.ETag, &createdAt, &updatedAt, &deletedAt,
		&txn.CreatedByActorUUID, &txn.UpdatedByActorUUID,
	)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Resource: "transaction", Key: txnUUID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	txn.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	txn.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if deletedAt != nil {
		if t, err := time.Parse(time.RFC3339, *deletedAt); err == nil {
			txn.DeletedAt = &t
		}
	}

	return txn, nil
}

// Resolve maps an identifier (UUID, friendly id like TXN-00042, or address
// slug) to a transaction UUID.
func (ts *TransactionStore) Resolve(identifier string) (string, error) {
	if id.IsUUID(identifier) {
		return identifier, nil
	}

	column := "slug"
	if id.IsFriendlyID(identifier) {
		column = "id"
	}

	var txnUUID string
	err := ts.store.db.QueryRow(
		"SELECT uuid FROM transactions WHERE "+column+" = ? AND deleted_at IS NULL",
		identifier,
	).Scan(&txnUUID)
	if err == sql.ErrNoRows {
		return "", &domain.NotFoundError{Resource: "transaction", Key: identifier}
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve transaction: %w", err)
	}
	return txnUUID, nil
}

// List returns all non-deleted transactions ordered by friendly id.
func (ts *TransactionStore) List() ([]domain.Transaction, error) {
	rows, err := ts.store.db.Query(`
		SELECT uuid, id, slug, txn_type, state_code, stage_id, price_cents, etag
		FROM transactions WHERE deleted_at IS NULL ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.UUID, &t.ID, &t.Slug, &t.Type, &t.StateCode, &t.StageID, &t.PriceCents, &t.ETag); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// Delete soft-deletes a transaction. Its task instances and anchor dates are
// removed when the row is purged (FK cascade); until then they are hidden
// behind the deleted_at filter.
func (ts *TransactionStore) Delete(actorUUID, txnUUID string) error {
	return ts.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.Exec(`
			UPDATE transactions
			SET deleted_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
				etag = etag + 1,
				updated_by_actor_uuid = ?
			WHERE uuid = ? AND deleted_at IS NULL
		`, actorUUID, txnUUID)
		if err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return &domain.NotFoundError{Resource: "transaction", Key: txnUUID}
		}

		return ew.LogEvent(tx, &domain.Event{
			ActorUUID:    &actorUUID,
			ResourceType: "transaction",
			ResourceUUID: &txnUUID,
			EventType:    "transaction.deleted",
		})
	})
}

// Purge hard-deletes a transaction, cascading to its task instances and
// anchor dates.
func (ts *TransactionStore) Purge(actorUUID, txnUUID string) error {
	return ts.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		// Log before deleting so the event can still reference the row.
		if err := ew.LogEvent(tx, &domain.Event{
			ActorUUID:    &actorUUID,
			ResourceType: "transaction",
			ResourceUUID: &txnUUID,
			EventType:    "transaction.purged",
		}); err != nil {
			return err
		}

		res, err := tx.Exec("DELETE FROM transactions WHERE uuid = ?", txnUUID)
		if err != nil {
			return fmt.Errorf("failed to purge transaction: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return &domain.NotFoundError{Resource: "transaction", Key: txnUUID}
		}
		return nil
	})
}
