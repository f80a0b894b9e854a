package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/dates"
)

// UUIDv4Regex validates lowercase UUIDv4 format
var UUIDv4Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// stateCodeRegex validates two-letter US state codes
var stateCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)

// ValidateUUID validates a UUID v4 format (lowercase with hyphens)
func ValidateUUID(uuid string) error {
	if !UUIDv4Regex.MatchString(uuid) {
		return &ValidationError{Field: "uuid", Reason: "must be lowercase UUIDv4 format (e.g., 550e8400-e29b-41d4-a716-446655440000)"}
	}
	return nil
}

// ValidateTransactionType validates a transaction type
func ValidateTransactionType(t string) error {
	switch TransactionType(t) {
	case TransactionTypeListing, TransactionTypeBuyer:
		return nil
	default:
		return &ValidationError{Field: "txn_type", Reason: "must be one of: listing, buyer"}
	}
}

// ValidateTaskStatus validates a task status, case-insensitively
func ValidateTaskStatus(s string) error {
	switch {
	case TaskStatus(s).IsCompleted(), strings.EqualFold(s, string(TaskStatusOpen)):
		return nil
	default:
		return &ValidationError{Field: "status", Reason: "must be one of: Open, Completed"}
	}
}

// ValidateStateCode validates a two-letter state code
func ValidateStateCode(code string) error {
	if !stateCodeRegex.MatchString(code) {
		return &ValidationError{Field: "state_code", Reason: "must be a two-letter uppercase state code"}
	}
	return nil
}

// ValidateStageID validates a workflow stage id
func ValidateStageID(stage int) error {
	if stage < 1 {
		return &ValidationError{Field: "stage_id", Reason: "must be a positive stage number"}
	}
	return nil
}

// ValidateRepeatRule validates a repeat rule. A zero-frequency rule is valid
// (not repeatable); a repeatable rule needs a positive interval and known unit.
func ValidateRepeatRule(r RepeatRule) error {
	if !r.Repeats() {
		return nil
	}
	if r.Interval < 1 {
		return &ValidationError{Field: "repeat.interval", Reason: "must be at least 1 for a repeatable task"}
	}
	if !dates.ValidUnit(r.Unit) {
		return &ValidationError{Field: "repeat.unit", Reason: "must be one of: day, week, month"}
	}
	return nil
}

// ValidateCalendarDate validates an ISO calendar date string (YYYY-MM-DD)
func ValidateCalendarDate(s string) error {
	if _, err := dates.Parse(s); err != nil {
		return &ValidationError{Field: "date", Reason: err.Error()}
	}
	return nil
}

// ValidateActorRole validates an actor role
func ValidateActorRole(role string) error {
	switch role {
	case "human", "agent", "system":
		return nil
	default:
		return &ValidationError{Field: "role", Reason: "must be one of: human, agent, system"}
	}
}

// ValidationError reports a malformed or missing field, rejected before any
// side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StaleStageError is returned when a stage transition's precondition fails:
// the transaction's persisted stage no longer matches what the caller saw.
// Callers should refetch and retry rather than treat it as a storage failure.
type StaleStageError struct {
	TransactionUUID string
	Expected        int
	Actual          int
}

func (e *StaleStageError) Error() string {
	return fmt.Sprintf("stale stage for transaction %s: expected stage %d, currently %d", e.TransactionUUID, e.Expected, e.Actual)
}

// NotFoundError is returned when a referenced resource does not exist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}
