package domain

import (
	"errors"
	"testing"
)

func TestValidateUUID(t *testing.T) {
	if err := ValidateUUID("550e8400-e29b-41d4-a716-446655440000"); err != nil {
		t.Errorf("expected valid UUID, got %v", err)
	}

	invalid := []string{
		"",
		"not-a-uuid",
		"550E8400-E29B-41D4-A716-446655440000", // uppercase
		"550e8400-e29b-11d4-a716-446655440000", // not v4
	}
	for _, s := range invalid {
		if err := ValidateUUID(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestValidateTransactionType(t *testing.T) {
	for _, s := range []string{"listing", "buyer"} {
		if err := ValidateTransactionType(s); err != nil {
			t.Errorf("expected %q valid, got %v", s, err)
		}
	}
	for _, s := range []string{"", "seller", "Listing"} {
		if err := ValidateTransactionType(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestValidateTaskStatusCaseInsensitive(t *testing.T) {
	for _, s := range []string{"Open", "open", "Completed", "COMPLETED"} {
		if err := ValidateTaskStatus(s); err != nil {
			t.Errorf("expected %q valid, got %v", s, err)
		}
	}
	if err := ValidateTaskStatus("done"); err == nil {
		t.Error("expected error for 'done'")
	}
}

func TestValidateStateCode(t *testing.T) {
	if err := ValidateStateCode("CA"); err != nil {
		t.Errorf("expected CA valid, got %v", err)
	}
	for _, s := range []string{"", "ca", "CAL", "C1"} {
		if err := ValidateStateCode(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestValidateRepeatRule(t *testing.T) {
	if err := ValidateRepeatRule(RepeatRule{}); err != nil {
		t.Errorf("non-repeating rule should be valid, got %v", err)
	}
	if err := ValidateRepeatRule(RepeatRule{Frequency: 2, Interval: 1, Unit: "month"}); err != nil {
		t.Errorf("expected valid rule, got %v", err)
	}
	if err := ValidateRepeatRule(RepeatRule{Frequency: 2, Interval: 0, Unit: "day"}); err == nil {
		t.Error("expected error for zero interval")
	}
	if err := ValidateRepeatRule(RepeatRule{Frequency: 2, Interval: 1, Unit: "year"}); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestValidationErrorsAreTyped(t *testing.T) {
	err := ValidateStageID(0)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Field != "stage_id" {
		t.Errorf("expected field stage_id, got %q", verr.Field)
	}
}

func TestStaleStageError(t *testing.T) {
	var err error = &StaleStageError{TransactionUUID: "abc", Expected: 1, Actual: 2}

	var stale *StaleStageError
	if !errors.As(err, &stale) {
		t.Fatal("expected StaleStageError to match with errors.As")
	}
	if stale.Expected != 1 || stale.Actual != 2 {
		t.Errorf("unexpected fields: %+v", stale)
	}
	if err.Error() == "" {
		t.Error("expected non-empty message")
	}
}

func TestNotFoundError(t *testing.T) {
	var err error = &NotFoundError{Resource: "transaction", Key: "TXN-00042"}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatal("expected NotFoundError to match with errors.As")
	}
}
