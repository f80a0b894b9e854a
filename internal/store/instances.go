package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/dates"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/events"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/schedule"
)

// InstanceStore handles task-instance persistence.
type InstanceStore struct {
	store *Store
}

// materializeStage creates one set of instances per template of the stage
// that has no instances yet. Re-running it is a no-op for templates already
// materialized, which makes expansion idempotent. Returns the number of
// instances created.
func materializeStage(tx *sql.Tx, actorUUID, txnUUID, stateCode, txnType string, stageID int) (int, error) {
	rows, err := tx.Query(`
		SELECT task_id, name, field_id, offset_days, repeat_frequency, repeat_interval, repeat_unit
		FROM task_templates
		WHERE state_code = ? AND txn_type = ? AND stage_id = ?
		ORDER BY task_id
	`, stateCode, txnType, stageID)
	if err != nil {
		return 0, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.TaskTemplate
	for rows.Next() {
		var t domain.TaskTemplate
		t.StateCode = stateCode
		t.Type = domain.TransactionType(txnType)
		t.StageID = stageID
		if err := rows.Scan(&t.TaskID, &t.Name, &t.FieldID, &t.OffsetDays,
			&t.Repeat.Frequency, &t.Repeat.Interval, &t.Repeat.Unit); err != nil {
			return 0, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating templates: %w", err)
	}
	rows.Close()

	materialized, err := materializedTemplateIDs(tx, txnUUID, stageID)
	if err != nil {
		return 0, err
	}

	anchors, err := anchorsByField(tx, txnUUID, stageID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, tpl := range templates {
		if materialized[tpl.TaskID] {
			continue
		}

		anchor := anchors[tpl.FieldID] // zero Date when absent: pending drafts
		for _, draft := range schedule.Expand(tpl, anchor) {
			instanceID, err := db.NextInstanceID(tx, txnUUID)
			if err != nil {
				return created, err
			}
			_, err = tx.Exec(`
				INSERT INTO task_instances (transaction_uuid, instance_id, template_task_id, stage_id, name, task_days, status, created_by_actor_uuid, updated_by_actor_uuid)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, txnUUID, instanceID, draft.TemplateTaskID, draft.StageID, draft.Name, draft.TaskDays, draft.Status, actorUUID, actorUUID)
			if err != nil {
				return created, fmt.Errorf("failed to create task instance: %w", err)
			}
			created++
		}
	}

	return created, nil
}

func materializedTemplateIDs(tx *sql.Tx, txnUUID string, stageID int) (map[int]bool, error) {
	rows, err := tx.Query(
		"SELECT DISTINCT template_task_id FROM task_instances WHERE transaction_uuid = ? AND stage_id = ?",
		txnUUID, stageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query materialized templates: %w", err)
	}
	defer rows.Close()

	ids := make(map[int]bool)
	for rows.Next() {
		var taskID int
		if err := rows.Scan(&taskID); err != nil {
			return nil, fmt.Errorf("failed to scan template id: %w", err)
		}
		ids[taskID] = true
	}
	return ids, rows.Err()
}

// ExpandStage materializes the stage's templates into task instances.
// Calling it again with no intervening template changes creates nothing.
func (is *InstanceStore) ExpandStage(actorUUID, txnUUID string, stageID int) (int, error) {
	if err := domain.ValidateStageID(stageID); err != nil {
		return 0, err
	}

	var created int
	err := is.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		stateCode, txnType, err := txnScope(tx, txnUUID)
		if err != nil {
			return err
		}
		created, err = materializeStage(tx, actorUUID, txnUUID, stateCode, txnType, stageID)
		return err
	})
	return created, err
}

// Duplicate creates count copies of a task instance, spaced interval units
// apart starting from the source's resolved due date. Copies carry explicit
// due dates and open status. Month spacing is resolved against the source
// date, never compounded.
func (is *InstanceStore) Duplicate(actorUUID, txnUUID string, instanceID, count, interval int, unit string) ([]int, error) {
	if count < 1 {
		return nil, &domain.ValidationError{Field: "count", Reason: "must duplicate at least once"}
	}
	if interval < 1 {
		return nil, &domain.ValidationError{Field: "interval", Reason: "must be at least 1"}
	}
	if !dates.ValidUnit(unit) {
		return nil, &domain.ValidationError{Field: "unit", Reason: "must be one of: day, week, month"}
	}

	var createdIDs []int
	err := is.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		src, err := getInstanceTx(tx, txnUUID, instanceID)
		if err != nil {
			return err
		}

		base, err := resolveDueDateTx(tx, src)
		if err != nil {
			return err
		}
		if base.IsZero() {
			return &domain.ValidationError{Field: "instance", Reason: "cannot duplicate an unscheduled task"}
		}

		for i := 1; i <= count; i++ {
			due := dates.AddInterval(base, interval*i, dates.Unit(unit)).String()
			newID, err := db.NextInstanceID(tx, txnUUID)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`
				INSERT INTO task_instances (transaction_uuid, instance_id, template_task_id, stage_id, name, due_date, status, notes, created_by_actor_uuid, updated_by_actor_uuid)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, txnUUID, newID, src.TemplateTaskID, src.StageID, src.Name, due, domain.TaskStatusOpen, src.Notes, actorUUID, actorUUID)
			if err != nil {
				return fmt.Errorf("failed to duplicate instance: %w", err)
			}
			createdIDs = append(createdIDs, newID)
		}

		return ew.LogEvent(tx, &domain.Event{
			ActorUUID:    &actorUUID,
			ResourceType: "task",
			ResourceUUID: &txnUUID,
			EventType:    "task.duplicated",
		})
	})

	return createdIDs, err
}

// SetStatus updates a task's status. Moving to Open with a non-empty skip
// reason marks the task skipped and stores the reason; moving to Completed
// always clears the skip flag and reason — completion overrides skip.
func (is *InstanceStore) SetStatus(actorUUID, txnUUID string, instanceID int, status string, skipReason string) error {
	if err := domain.ValidateTaskStatus(status); err != nil {
		return err
	}

	canonical := domain.TaskStatusOpen
	if domain.TaskStatus(status).IsCompleted() {
		canonical = domain.TaskStatusCompleted
	}

	skipped := false
	var reason *string
	if canonical == domain.TaskStatusOpen && strings.TrimSpace(skipReason) != "" {
		skipped = true
		r := strings.TrimSpace(skipReason)
		reason = &r
	}

	return is.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.Exec(`
			UPDATE task_instances
			SET status = ?,
				is_skipped = ?,
				skip_reason = ?,
				updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
				updated_by_actor_uuid = ?
			WHERE transaction_uuid = ? AND instance_id = ?
		`, canonical, skipped, reason, actorUUID, txnUUID, instanceID)
		if err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return &domain.NotFoundError{Resource: "task instance", Key: fmt.Sprintf("%s/%d", txnUUID, instanceID)}
		}

		return ew.LogTaskStatusChanged(tx, actorUUID, txnUUID, instanceID, canonical, skipped)
	})
}

// SetDueDate sets an explicit due date on a task, optionally updating notes.
// An explicit date always wins over the anchor-derived schedule.
func (is *InstanceStore) SetDueDate(actorUUID, txnUUID string, instanceID int, dueDate string, notes *string) error {
	if err := domain.ValidateCalendarDate(dueDate); err != nil {
		return err
	}

	return is.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		query := `
			UPDATE task_instances
			SET due_date = ?,
				updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
				updated_by_actor_uuid = ?
		`
		args := []any{dueDate, actorUUID}
		if notes != nil {
			query += ", notes = ?"
			args = append(args, *notes)
		}
		query += " WHERE transaction_uuid = ? AND instance_id = ?"
		args = append(args, txnUUID, instanceID)

		res, err := tx.Exec(query, args...)
		if err != nil {
			return fmt.Errorf("failed to set due date: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return &domain.NotFoundError{Resource: "task instance", Key: fmt.Sprintf("%s/%d", txnUUID, instanceID)}
		}

		return ew.LogEvent(tx, &domain.Event{
			ActorUUID:    &actorUUID,
			ResourceType: "task",
			ResourceUUID: &txnUUID,
			EventType:    "task.due_date_set",
		})
	})
}

// SetTaskDays overrides a task's schedule offset. The due date shown for the
// task becomes anchor + days unless an explicit due date is set.
func (is *InstanceStore) SetTaskDays(actorUUID, txnUUID string, instanceID int, days int) error {
	return is.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.Exec(`
			UPDATE task_instances
			SET task_days = ?,
				updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
				updated_by_actor_uuid = ?
			WHERE transaction_uuid = ? AND instance_id = ?
		`, days, actorUUID, txnUUID, instanceID)
		if err != nil {
			return fmt.Errorf("failed to set task days: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return &domain.NotFoundError{Resource: "task instance", Key: fmt.Sprintf("%s/%d", txnUUID, instanceID)}
		}

		return ew.LogEvent(tx, &domain.Event{
			ActorUUID:    &actorUUID,
			ResourceType: "task",
			ResourceUUID: &txnUUID,
			EventType:    "task.days_set",
		})
	})
}

// SetNotes replaces a task's free-text notes.
func (is *InstanceStore) SetNotes(actorUUID, txnUUID string, instanceID int, notes string) error {
	return is.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.Exec(`
			UPDATE task_instances
			SET notes = ?,
				updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
				updated_by_actor_uuid = ?
			WHERE transaction_uuid = ? AND instance_id = ?
		`, notes, actorUUID, txnUUID, instanceID)
		if err != nil {
			return fmt.Errorf("failed to set notes: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return &domain.NotFoundError{Resource: "task instance", Key: fmt.Sprintf("%s/%d", txnUUID, instanceID)}
		}
		return nil
	})
}

// List returns a transaction's task instances, optionally limited to one
// stage (stageID 0 means all stages), ordered by stage then instance id.
func (is *InstanceStore) List(txnUUID string, stageID int) ([]domain.TaskInstance, error) {
	query := `
		SELECT transaction_uuid, instance_id, template_task_id, stage_id, name,
		       task_days, due_date, status, is_skipped, skip_reason, notes,
		       created_at, updated_at, created_by_actor_uuid, updated_by_actor_uuid
		FROM task_instances WHERE transaction_uuid = ?
	`
	args := []any{txnUUID}
	if stageID > 0 {
		query += " AND stage_id = ?"
		args = append(args, stageID)
	}
	query += " ORDER BY stage_id, instance_id"

	rows, err := is.store.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list task instances: %w", err)
	}
	defer rows.Close()

	var instances []domain.TaskInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, *inst)
	}
	return instances, rows.Err()
}

// Get retrieves a single task instance.
func (is *InstanceStore) Get(txnUUID string, instanceID int) (*domain.TaskInstance, error) {
	var inst *domain.TaskInstance
	err := is.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		var err error
		inst, err = getInstanceTx(tx, txnUUID, instanceID)
		return err
	})
	return inst, err
}

func getInstanceTx(tx *sql.Tx, txnUUID string, instanceID int) (*domain.TaskInstance, error) {
	row := tx.QueryRow(`
		SELECT transaction_uuid, instance_id, template_task_id, stage_id, name,
		       task_days, due_date, status, is_skipped, skip_reason, notes,
		       created_at, updated_at, created_by_actor_uuid, updated_by_actor_uuid
		FROM task_instances WHERE transaction_uuid = ? AND instance_id = ?
	`, txnUUID, instanceID)

	inst, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Resource: "task instance", Key: fmt.Sprintf("%s/%d", txnUUID, instanceID)}
	}
	return inst, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstance(row rowScanner) (*domain.TaskInstance, error) {
	inst := &domain.TaskInstance{}
	var createdAt, updatedAt string
	err := row.Scan(
		&inst.TransactionUUID, &inst.InstanceID, &inst.TemplateTaskID, &inst.StageID, &inst.Name,
		&inst.TaskDays, &inst.DueDate, &inst.Status, &inst.IsSkipped, &inst.SkipReason, &inst.Notes,
		&createdAt, &updatedAt, &inst.CreatedByActorUUID, &inst.UpdatedByActorUUID,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task instance: %w", err)
	}
	inst.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	inst.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return inst, nil
}

// resolveDueDateTx resolves an instance's effective due date inside tx:
// the explicit due date when present, else the template's anchor date at the
// instance's stage plus task_days. Returns the zero Date when neither path
// resolves.
func resolveDueDateTx(tx *sql.Tx, inst *domain.TaskInstance) (dates.Date, error) {
	if inst.DueDate != nil {
		return dates.Parse(*inst.DueDate)
	}
	if inst.TaskDays == nil {
		return dates.Date{}, nil
	}

	stateCode, txnType, err := txnScope(tx, inst.TransactionUUID)
	if err != nil {
		return dates.Date{}, err
	}

	var value string
	err = tx.QueryRow(`
		SELECT ad.value_date
		FROM task_templates tt
		JOIN anchor_dates ad
		  ON ad.transaction_uuid = ? AND ad.stage_id = tt.stage_id AND ad.field_id = tt.field_id
		WHERE tt.state_code = ? AND tt.txn_type = ? AND tt.stage_id = ? AND tt.task_id = ?
	`, inst.TransactionUUID, stateCode, txnType, inst.StageID, inst.TemplateTaskID).Scan(&value)
	if err == sql.ErrNoRows {
		return dates.Date{}, nil
	}
	if err != nil {
		return dates.Date{}, fmt.Errorf("failed to resolve anchor date: %w", err)
	}

	anchor, err := dates.Parse(value)
	if err != nil {
		return dates.Date{}, fmt.Errorf("corrupt anchor date: %w", err)
	}
	return anchor.AddDays(*inst.TaskDays), nil
}
