// Package checklist assembles the read-side view of a transaction's tasks:
// instances grouped by stage with their effective due dates resolved.
package checklist

import (
	"fmt"
	"sort"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/dates"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

// Item is one checklist entry. Due is the resolved due date: the explicit
// override when set, otherwise the template's anchor date plus task_days,
// otherwise nil (the task is pending its anchor). Remove mirrors the derived
// strike-through hint, never a stored column.
type Item struct {
	InstanceID int     `json:"instance_id" yaml:"instance_id"`
	TaskID     int     `json:"task_id" yaml:"task_id"`
	Name       string  `json:"name" yaml:"name"`
	Due        *string `json:"due,omitempty" yaml:"due,omitempty"`
	Status     string  `json:"status" yaml:"status"`
	Skipped    bool    `json:"skipped" yaml:"skipped"`
	SkipReason *string `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Notes      string  `json:"notes,omitempty" yaml:"notes,omitempty"`
	Remove     bool    `json:"remove" yaml:"remove"`
}

// Stage is one workflow stage's slice of the checklist.
type Stage struct {
	StageID   int    `json:"stage_id" yaml:"stage_id"`
	Items     []Item `json:"items" yaml:"items"`
	Total     int    `json:"total" yaml:"total"`
	Completed int    `json:"completed" yaml:"completed"`
}

// Checklist is the aggregated view of a transaction's task instances.
type Checklist struct {
	TransactionUUID string  `json:"transaction_uuid" yaml:"transaction_uuid"`
	TransactionID   string  `json:"transaction_id" yaml:"transaction_id"`
	Slug            string  `json:"slug" yaml:"slug"`
	CurrentStage    int     `json:"current_stage" yaml:"current_stage"`
	Stages          []Stage `json:"stages" yaml:"stages"`
}

// Aggregate builds the checklist for a transaction. stageID limits the view
// to one stage; 0 includes every stage with instances.
func Aggregate(s *store.Store, txnUUID string, stageID int) (*Checklist, error) {
	txn, err := s.Transactions.GetByUUID(txnUUID)
	if err != nil {
		return nil, err
	}

	instances, err := s.Instances.List(txnUUID, stageID)
	if err != nil {
		return nil, err
	}

	anchors, err := anchorIndex(s, txnUUID, stageID)
	if err != nil {
		return nil, err
	}

	fieldByTask, err := templateFieldIndex(s, txn)
	if err != nil {
		return nil, err
	}

	byStage := make(map[int][]Item)
	completed := make(map[int]int)
	for _, inst := range instances {
		item := Item{
			InstanceID: inst.InstanceID,
			TaskID:     inst.TemplateTaskID,
			Name:       inst.Name,
			Due:        resolveDue(&inst, anchors, fieldByTask),
			Status:     string(inst.Status),
			Skipped:    inst.IsSkipped,
			SkipReason: inst.SkipReason,
			Notes:      inst.Notes,
			Remove:     inst.Remove(),
		}
		byStage[inst.StageID] = append(byStage[inst.StageID], item)
		if inst.Status.IsCompleted() {
			completed[inst.StageID]++
		}
	}

	stageIDs := make([]int, 0, len(byStage))
	for sid := range byStage {
		stageIDs = append(stageIDs, sid)
	}
	sort.Ints(stageIDs)

	result := &Checklist{
		TransactionUUID: txn.UUID,
		TransactionID:   txn.ID,
		Slug:            txn.Slug,
		CurrentStage:    txn.StageID,
	}
	for _, sid := range stageIDs {
		items := byStage[sid]
		result.Stages = append(result.Stages, Stage{
			StageID:   sid,
			Items:     items,
			Total:     len(items),
			Completed: completed[sid],
		})
	}
	return result, nil
}

type anchorKey struct {
	stageID int
	fieldID int
}

type taskKey struct {
	stageID int
	taskID  int
}

func anchorIndex(s *store.Store, txnUUID string, stageID int) (map[anchorKey]dates.Date, error) {
	recorded, err := s.Dates.List(txnUUID, stageID)
	if err != nil {
		return nil, err
	}

	anchors := make(map[anchorKey]dates.Date, len(recorded))
	for _, a := range recorded {
		d, err := dates.Parse(a.ValueDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt anchor date for field %d: %w", a.FieldID, err)
		}
		anchors[anchorKey{a.StageID, a.FieldID}] = d
	}
	return anchors, nil
}

func templateFieldIndex(s *store.Store, txn *domain.Transaction) (map[taskKey]int, error) {
	rows, err := s.DB().Query(
		"SELECT stage_id, task_id, field_id FROM task_templates WHERE state_code = ? AND txn_type = ?",
		txn.StateCode, txn.Type,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query template fields: %w", err)
	}
	defer rows.Close()

	index := make(map[taskKey]int)
	for rows.Next() {
		var stageID, taskID, fieldID int
		if err := rows.Scan(&stageID, &taskID, &fieldID); err != nil {
			return nil, fmt.Errorf("failed to scan template field: %w", err)
		}
		index[taskKey{stageID, taskID}] = fieldID
	}
	return index, rows.Err()
}

func resolveDue(inst *domain.TaskInstance, anchors map[anchorKey]dates.Date, fields map[taskKey]int) *string {
	if inst.DueDate != nil {
		return inst.DueDate
	}
	if inst.TaskDays == nil {
		return nil
	}

	fieldID, ok := fields[taskKey{inst.StageID, inst.TemplateTaskID}]
	if !ok {
		// Template deleted after materialization: the schedule offset has
		// nothing to resolve against.
		return nil
	}
	anchor, ok := anchors[anchorKey{inst.StageID, fieldID}]
	if !ok {
		return nil
	}

	due := anchor.AddDays(*inst.TaskDays).String()
	return &due
}
