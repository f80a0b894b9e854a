package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/dates"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/events"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/schedule"
)

// DateStore handles anchor-date persistence.
type DateStore struct {
	store *Store
}

// Set records a value for a date field at a stage. Direct entry overwrites:
// a second write to the same (state, field, transaction, stage) key updates
// the existing row rather than duplicating it. Instances at that stage that
// were pending on this field get their task_days filled in the same unit.
func (ds *DateStore) Set(actorUUID, txnUUID string, stageID, fieldID int, valueDate string) error {
	if err := domain.ValidateStageID(stageID); err != nil {
		return err
	}
	if err := domain.ValidateCalendarDate(valueDate); err != nil {
		return err
	}

	return ds.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		stateCode, _, err := txnScope(tx, txnUUID)
		if err != nil {
			return err
		}

		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM date_fields WHERE id = ?", fieldID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check date field: %w", err)
		}
		if exists == 0 {
			return &domain.NotFoundError{Resource: "date field", Key: fmt.Sprintf("%d", fieldID)}
		}

		_, err = tx.Exec(`
			INSERT INTO anchor_dates (transaction_uuid, stage_id, state_code, field_id, value_date, entered_by_actor_uuid)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (state_code, field_id, transaction_uuid, stage_id) DO UPDATE SET
				value_date = excluded.value_date,
				entered_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
				entered_by_actor_uuid = excluded.entered_by_actor_uuid
		`, txnUUID, stageID, stateCode, fieldID, valueDate, actorUUID)
		if err != nil {
			return fmt.Errorf("failed to set anchor date: %w", err)
		}

		if err := fillPendingForField(tx, actorUUID, txnUUID, stageID, fieldID); err != nil {
			return err
		}

		return ew.LogAnchorDateSet(tx, actorUUID, txnUUID, stageID, fieldID, valueDate)
	})
}

// fillPendingForField runs the scheduling computation retroactively for
// instances at the stage still pending on the given field. Unlike the
// forward-transition fill, direct date entry schedules non-repeatable groups
// too: the user just supplied the one date those tasks were waiting for.
func fillPendingForField(tx *sql.Tx, actorUUID, txnUUID string, stageID, fieldID int) error {
	stateCode, txnType, err := txnScope(tx, txnUUID)
	if err != nil {
		return err
	}

	var value string
	err = tx.QueryRow(
		"SELECT value_date FROM anchor_dates WHERE transaction_uuid = ? AND stage_id = ? AND field_id = ?",
		txnUUID, stageID, fieldID,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read anchor date: %w", err)
	}
	anchor, err := dates.Parse(value)
	if err != nil {
		return fmt.Errorf("corrupt anchor date for field %d: %w", fieldID, err)
	}

	// The ordinal i feeds the repeat delta, so it must count every instance
	// of the template group in instance-id order, not just the pending ones:
	// a partially filled group continues its sequence instead of restarting.
	rows, err := tx.Query(`
		SELECT ti.instance_id, ti.template_task_id, tt.offset_days,
		       tt.repeat_frequency, tt.repeat_interval, tt.repeat_unit,
		       ti.task_days IS NULL
		FROM task_instances ti
		JOIN task_templates tt
		  ON tt.state_code = ? AND tt.txn_type = ? AND tt.stage_id = ti.stage_id AND tt.task_id = ti.template_task_id
		WHERE ti.transaction_uuid = ? AND ti.stage_id = ? AND tt.field_id = ?
		ORDER BY ti.template_task_id, ti.instance_id
	`, stateCode, txnType, txnUUID, stageID, fieldID)
	if err != nil {
		return fmt.Errorf("failed to query pending instances: %w", err)
	}
	defer rows.Close()

	type row struct {
		instanceID int
		taskDays   int
	}
	var updates []row
	groupIndex := make(map[int]int)
	for rows.Next() {
		var instanceID, templateTaskID, offsetDays int
		var rule domain.RepeatRule
		var pending bool
		if err := rows.Scan(&instanceID, &templateTaskID, &offsetDays,
			&rule.Frequency, &rule.Interval, &rule.Unit, &pending); err != nil {
			return fmt.Errorf("failed to scan pending instance: %w", err)
		}
		i := groupIndex[templateTaskID]
		groupIndex[templateTaskID] = i + 1
		if !pending {
			continue
		}
		updates = append(updates, row{
			instanceID: instanceID,
			taskDays:   offsetDays + schedule.DeltaDays(anchor, rule, i),
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating pending instances: %w", err)
	}

	for _, u := range updates {
		_, err := tx.Exec(`
			UPDATE task_instances
			SET task_days = ?,
				updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
				updated_by_actor_uuid = ?
			WHERE transaction_uuid = ? AND instance_id = ?
		`, u.taskDays, actorUUID, txnUUID, u.instanceID)
		if err != nil {
			return fmt.Errorf("failed to set task_days for instance %d: %w", u.instanceID, err)
		}
	}

	return nil
}

// List returns the anchor dates recorded for a transaction, optionally
// limited to one stage (stageID 0 means all stages).
func (ds *DateStore) List(txnUUID string, stageID int) ([]domain.AnchorDate, error) {
	query := `
		SELECT transaction_uuid, stage_id, state_code, field_id, value_date, entered_at, entered_by_actor_uuid
		FROM anchor_dates WHERE transaction_uuid = ?
	`
	args := []any{txnUUID}
	if stageID > 0 {
		query += " AND stage_id = ?"
		args = append(args, stageID)
	}
	query += " ORDER BY stage_id, field_id"

	rows, err := ds.store.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list anchor dates: %w", err)
	}
	defer rows.Close()

	var result []domain.AnchorDate
	for rows.Next() {
		var a domain.AnchorDate
		var enteredAt string
		if err := rows.Scan(&a.TransactionUUID, &a.StageID, &a.StateCode, &a.FieldID, &a.ValueDate, &enteredAt, &a.EnteredByActorUUID); err != nil {
			return nil, fmt.Errorf("failed to scan anchor date: %w", err)
		}
		a.EnteredAt, _ = time.Parse(time.RFC3339, enteredAt)
		result = append(result, a)
	}
	return result, rows.Err()
}

// Fields returns the date-field catalog.
func (ds *DateStore) Fields() ([]domain.DateField, error) {
	rows, err := ds.store.db.Query("SELECT id, name FROM date_fields ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list date fields: %w", err)
	}
	defer rows.Close()

	var fields []domain.DateField
	for rows.Next() {
		var f domain.DateField
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("failed to scan date field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}
