package store

import (
	"database/sql"
	"fmt"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/events"
)

// TemplateStore handles task-template catalog persistence.
type TemplateStore struct {
	store *Store
}

// TemplateParams contains parameters for creating a task template.
type TemplateParams struct {
	StateCode  string
	Type       domain.TransactionType
	StageID    int
	Name       string
	FieldID    int
	OffsetDays int
	Repeat     domain.RepeatRule
}

func (p TemplateParams) validate() error {
	if err := domain.ValidateStateCode(p.StateCode); err != nil {
		return err
	}
	if err := domain.ValidateTransactionType(string(p.Type)); err != nil {
		return err
	}
	if err := domain.ValidateStageID(p.StageID); err != nil {
		return err
	}
	if p.Name == "" {
		return &domain.ValidationError{Field: "name", Reason: "template name is required"}
	}
	return domain.ValidateRepeatRule(p.Repeat)
}

// Create adds a template, allocating its task id as max+1 within the
// (state, type, stage) scope.
func (ts *TemplateStore) Create(actorUUID string, params TemplateParams) (*domain.TaskTemplate, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	var tpl *domain.TaskTemplate
	err := ts.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM date_fields WHERE id = ?", params.FieldID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check date field: %w", err)
		}
		if exists == 0 {
			return &domain.NotFoundError{Resource: "date field", Key: fmt.Sprintf("%d", params.FieldID)}
		}

		taskID, err := db.NextTemplateTaskID(tx, params.StateCode, string(params.Type), params.StageID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT INTO task_templates (state_code, txn_type, stage_id, task_id, name, field_id, offset_days, repeat_frequency, repeat_interval, repeat_unit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, params.StateCode, params.Type, params.StageID, taskID, params.Name, params.FieldID,
			params.OffsetDays, params.Repeat.Frequency, params.Repeat.Interval, params.Repeat.Unit)
		if err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}

		tpl = &domain.TaskTemplate{
			TemplateKey: domain.TemplateKey{
				StateCode: params.StateCode,
				Type:      params.Type,
				StageID:   params.StageID,
				TaskID:    taskID,
			},
			Name:       params.Name,
			FieldID:    params.FieldID,
			OffsetDays: params.OffsetDays,
			Repeat:     params.Repeat,
		}

		return ew.LogEvent(tx, &domain.Event{
			ActorUUID:    &actorUUID,
			ResourceType: "template",
			EventType:    "template.created",
		})
	})

	return tpl, err
}

// Update rewrites a template's mutable fields in place.
func (ts *TemplateStore) Update(actorUUID string, key domain.TemplateKey, params TemplateParams) error {
	if err := params.validate(); err != nil {
		return err
	}

	return ts.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.Exec(`
			UPDATE task_templates
			SET name = ?, field_id = ?, offset_days = ?, repeat_frequency = ?, repeat_interval = ?, repeat_unit = ?
			WHERE state_code = ? AND txn_type = ? AND stage_id = ? AND task_id = ?
		`, params.Name, params.FieldID, params.OffsetDays,
			params.Repeat.Frequency, params.Repeat.Interval, params.Repeat.Unit,
			key.StateCode, key.Type, key.StageID, key.TaskID)
		if err != nil {
			return fmt.Errorf("failed to update template: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return &domain.NotFoundError{Resource: "template", Key: templateKeyString(key)}
		}

		return ew.LogEvent(tx, &domain.Event{
			ActorUUID:    &actorUUID,
			ResourceType: "template",
			EventType:    "template.updated",
		})
	})
}

// Delete removes a template from the catalog. Existing task instances are
// not touched; they keep their snapshot of the template's name.
func (ts *TemplateStore) Delete(actorUUID string, key domain.TemplateKey) error {
	return ts.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		res, err := tx.Exec(`
			DELETE FROM task_templates
			WHERE state_code = ? AND txn_type = ? AND stage_id = ? AND task_id = ?
		`, key.StateCode, key.Type, key.StageID, key.TaskID)
		if err != nil {
			return fmt.Errorf("failed to delete template: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return &domain.NotFoundError{Resource: "template", Key: templateKeyString(key)}
		}

		return ew.LogEvent(tx, &domain.Event{
			ActorUUID:    &actorUUID,
			ResourceType: "template",
			EventType:    "template.deleted",
		})
	})
}

// ListForStage returns the templates for one (state, type, stage) scope,
// ordered by task id.
func (ts *TemplateStore) ListForStage(stateCode string, txnType domain.TransactionType, stageID int) ([]domain.TaskTemplate, error) {
	return ts.list(
		"WHERE state_code = ? AND txn_type = ? AND stage_id = ?",
		stateCode, txnType, stageID,
	)
}

// ListAll returns the entire template catalog in scope order.
func (ts *TemplateStore) ListAll() ([]domain.TaskTemplate, error) {
	return ts.list("")
}

func (ts *TemplateStore) list(where string, args ...any) ([]domain.TaskTemplate, error) {
	query := `
		SELECT state_code, txn_type, stage_id, task_id, name, field_id, offset_days,
		       repeat_frequency, repeat_interval, repeat_unit
		FROM task_templates ` + where + `
		ORDER BY state_code, txn_type, stage_id, task_id`

	rows, err := ts.store.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.TaskTemplate
	for rows.Next() {
		var t domain.TaskTemplate
		if err := rows.Scan(&t.StateCode, &t.Type, &t.StageID, &t.TaskID, &t.Name, &t.FieldID,
			&t.OffsetDays, &t.Repeat.Frequency, &t.Repeat.Interval, &t.Repeat.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func templateKeyString(key domain.TemplateKey) string {
	return fmt.Sprintf("%s/%s/stage-%d/task-%d", key.StateCode, key.Type, key.StageID, key.TaskID)
}
