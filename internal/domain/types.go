package domain

import (
	"strings"
	"time"
)

// TransactionType represents the side of a real-estate transaction
type TransactionType string

const (
	TransactionTypeListing TransactionType = "listing"
	TransactionTypeBuyer   TransactionType = "buyer"
)

// TaskStatus represents the lifecycle status of a task instance
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "Open"
	TaskStatusCompleted TaskStatus = "Completed"
)

// IsCompleted reports whether s means completed, ignoring case.
func (s TaskStatus) IsCompleted() bool {
	return strings.EqualFold(string(s), string(TaskStatusCompleted))
}

// Actor represents an actor in the system
type Actor struct {
	UUID        string    `json:"uuid" db:"uuid"`
	ID          string    `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name"`
	Role        string    `json:"role" db:"role"` // human, agent, system
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction represents a real-estate transaction moving through workflow stages
type Transaction struct {
	UUID               string          `json:"uuid" db:"uuid"`
	ID                 string          `json:"id" db:"id"`
	Slug               string          `json:"slug" db:"slug"` // normalized property address
	Type               TransactionType `json:"type" db:"txn_type"`
	StateCode          string          `json:"state_code" db:"state_code"`
	StageID            int             `json:"stage_id" db:"stage_id"`
	PriceCents         int64           `json:"price_cents" db:"price_cents"`
	ETag               int64           `json:"etag" db:"etag"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt          *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedByActorUUID string          `json:"created_by_actor_uuid" db:"created_by_actor_uuid"`
	UpdatedByActorUUID string          `json:"updated_by_actor_uuid" db:"updated_by_actor_uuid"`
}

// DateField is a named anchor-date definition (e.g. "Listing Date")
type DateField struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// AnchorDate is a resolved value for a date field, scoped to
// (state, field, transaction, stage). The scope is unique: a second write to
// the same key updates rather than duplicates.
type AnchorDate struct {
	TransactionUUID    string    `json:"transaction_uuid" db:"transaction_uuid"`
	StageID            int       `json:"stage_id" db:"stage_id"`
	StateCode          string    `json:"state_code" db:"state_code"`
	FieldID            int       `json:"field_id" db:"field_id"`
	ValueDate          string    `json:"value_date" db:"value_date"` // YYYY-MM-DD
	EnteredAt          time.Time `json:"entered_at" db:"entered_at"`
	EnteredByActorUUID string    `json:"entered_by_actor_uuid" db:"entered_by_actor_uuid"`
}

// RepeatRule describes how a template fans out into additional instances.
// A zero Frequency means the template is not repeatable.
type RepeatRule struct {
	Frequency int    `json:"frequency" yaml:"frequency"`
	Interval  int    `json:"interval" yaml:"interval"`
	Unit      string `json:"unit" yaml:"unit"` // day, week, month
}

// Repeats reports whether the rule produces additional instances.
func (r RepeatRule) Repeats() bool {
	return r.Frequency > 0
}

// TemplateKey is the composite scope of a task template. Task ids are only
// unique within this scope, never globally, so lookups always key on the
// full composite.
type TemplateKey struct {
	StateCode string          `json:"state_code" yaml:"state_code"`
	Type      TransactionType `json:"txn_type" yaml:"txn_type"`
	StageID   int             `json:"stage_id" yaml:"stage_id"`
	TaskID    int             `json:"task_id" yaml:"task_id"`
}

// TaskTemplate is the reusable definition of a checklist item for a given
// (state, transaction type, stage).
type TaskTemplate struct {
	TemplateKey `yaml:",inline"`
	Name        string     `json:"name" yaml:"name"`
	FieldID     int        `json:"field_id" yaml:"field_id"`
	OffsetDays  int        `json:"offset_days" yaml:"offset_days"`
	Repeat      RepeatRule `json:"repeat" yaml:"repeat,omitempty"`
}

// TaskInstance is a concrete, per-transaction materialization of a template.
// InstanceID is unique per transaction and allocated as max(existing)+1.
type TaskInstance struct {
	TransactionUUID    string     `json:"transaction_uuid" db:"transaction_uuid"`
	InstanceID         int        `json:"instance_id" db:"instance_id"`
	TemplateTaskID     int        `json:"template_task_id" db:"template_task_id"`
	StageID            int        `json:"stage_id" db:"stage_id"`
	Name               string     `json:"name" db:"name"`
	TaskDays           *int       `json:"task_days,omitempty" db:"task_days"`
	DueDate            *string    `json:"due_date,omitempty" db:"due_date"` // YYYY-MM-DD
	Status             TaskStatus `json:"status" db:"status"`
	IsSkipped          bool       `json:"is_skipped" db:"is_skipped"`
	SkipReason         *string    `json:"skip_reason,omitempty" db:"skip_reason"`
	Notes              string     `json:"notes" db:"notes"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	CreatedByActorUUID string     `json:"created_by_actor_uuid" db:"created_by_actor_uuid"`
	UpdatedByActorUUID string     `json:"updated_by_actor_uuid" db:"updated_by_actor_uuid"`
}

// Remove is the UI hint for striking a task from active views. It is derived
// from status, never stored.
func (t *TaskInstance) Remove() bool {
	return t.Status.IsCompleted()
}

// Event represents an event in the event log
type Event struct {
	ID           int64     `json:"id" db:"id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	ActorUUID    *string   `json:"actor_uuid,omitempty" db:"actor_uuid"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	ResourceUUID *string   `json:"resource_uuid,omitempty" db:"resource_uuid"`
	EventType    string    `json:"event_type" db:"event_type"`
	ETag         *int64    `json:"etag,omitempty" db:"etag"`
	Payload      *string   `json:"payload,omitempty" db:"payload"` // JSON
}
