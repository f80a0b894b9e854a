package schedule

import (
	"testing"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/dates"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
)

func mustDate(t *testing.T, s string) dates.Date {
	t.Helper()
	d, err := dates.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return d
}

func TestExpandSingleInstance(t *testing.T) {
	tpl := domain.TaskTemplate{
		TemplateKey: domain.TemplateKey{StateCode: "CA", Type: domain.TransactionTypeListing, StageID: 1, TaskID: 4},
		Name:        "Order sign installation",
		FieldID:     1,
		OffsetDays:  5,
	}

	drafts := Expand(tpl, mustDate(t, "2024-03-01"))
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}

	d := drafts[0]
	if d.TaskDays == nil || *d.TaskDays != 5 {
		t.Errorf("expected task_days 5, got %v", d.TaskDays)
	}
	if d.DueDate == nil || *d.DueDate != "2024-03-06" {
		t.Errorf("expected due 2024-03-06, got %v", d.DueDate)
	}
	if d.Status != domain.TaskStatusOpen {
		t.Errorf("expected status Open, got %q", d.Status)
	}
	if d.TemplateTaskID != 4 || d.StageID != 1 {
		t.Errorf("expected template identity carried over, got %+v", d)
	}
}

func TestExpandRepeatDayUnit(t *testing.T) {
	tpl := domain.TaskTemplate{
		TemplateKey: domain.TemplateKey{StateCode: "CA", Type: domain.TransactionTypeListing, StageID: 2, TaskID: 7},
		Name:        "Weekly seller update",
		OffsetDays:  5,
		Repeat:      domain.RepeatRule{Frequency: 3, Interval: 2, Unit: "day"},
	}

	drafts := Expand(tpl, mustDate(t, "2024-03-01"))
	if len(drafts) != 4 {
		t.Fatalf("expected 4 drafts, got %d", len(drafts))
	}

	wantDays := []int{5, 7, 9, 11}
	wantDue := []string{"2024-03-06", "2024-03-08", "2024-03-10", "2024-03-12"}
	for i, d := range drafts {
		if d.TaskDays == nil || *d.TaskDays != wantDays[i] {
			t.Errorf("draft %d: expected task_days %d, got %v", i, wantDays[i], d.TaskDays)
		}
		if d.DueDate == nil || *d.DueDate != wantDue[i] {
			t.Errorf("draft %d: expected due %s, got %v", i, wantDue[i], d.DueDate)
		}
	}
}

func TestExpandRepeatWeekUnit(t *testing.T) {
	tpl := domain.TaskTemplate{
		Name:       "Biweekly lender check-in",
		OffsetDays: 0,
		Repeat:     domain.RepeatRule{Frequency: 2, Interval: 2, Unit: "week"},
	}

	drafts := Expand(tpl, mustDate(t, "2024-03-01"))
	wantDays := []int{0, 14, 28}
	for i, d := range drafts {
		if d.TaskDays == nil || *d.TaskDays != wantDays[i] {
			t.Errorf("draft %d: expected task_days %d, got %v", i, wantDays[i], d.TaskDays)
		}
	}
}

func TestExpandRepeatMonthUnitResolvesAgainstAnchor(t *testing.T) {
	// Month deltas are resolved once against the anchor, not compounded, so
	// the second occurrence's delta is the day count between the anchor and
	// anchor+2 months — not double the first delta.
	anchor := mustDate(t, "2024-01-31")
	tpl := domain.TaskTemplate{
		Name:       "Monthly escrow follow-up",
		OffsetDays: 0,
		Repeat:     domain.RepeatRule{Frequency: 2, Interval: 1, Unit: "month"},
	}

	drafts := Expand(tpl, anchor)
	if len(drafts) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(drafts))
	}

	// 2024-01-31 -> 2024-02-29 is 29 days; -> 2024-03-31 is 60 days (not 58).
	if *drafts[1].TaskDays != 29 {
		t.Errorf("first repeat: expected delta 29, got %d", *drafts[1].TaskDays)
	}
	if *drafts[2].TaskDays != 60 {
		t.Errorf("second repeat: expected anchor-relative delta 60, got %d", *drafts[2].TaskDays)
	}
	if *drafts[2].DueDate != "2024-03-31" {
		t.Errorf("second repeat: expected due 2024-03-31, got %s", *drafts[2].DueDate)
	}
}

func TestExpandWithoutAnchorProducesPendingDrafts(t *testing.T) {
	tpl := domain.TaskTemplate{
		Name:       "Schedule inspection",
		OffsetDays: 3,
		Repeat:     domain.RepeatRule{Frequency: 2, Interval: 1, Unit: "week"},
	}

	drafts := Expand(tpl, dates.Date{})
	if len(drafts) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(drafts))
	}
	for i, d := range drafts {
		if d.TaskDays != nil || d.DueDate != nil {
			t.Errorf("draft %d: expected pending draft with nil task_days and due date", i)
		}
		if d.Status != domain.TaskStatusOpen {
			t.Errorf("draft %d: expected status Open", i)
		}
	}
}

func TestDeltaDaysBaseInstanceIsZero(t *testing.T) {
	rule := domain.RepeatRule{Frequency: 5, Interval: 3, Unit: "month"}
	if got := DeltaDays(mustDate(t, "2024-01-31"), rule, 0); got != 0 {
		t.Errorf("expected 0 for base instance, got %d", got)
	}
}

func TestDeltaDaysNonRepeatingRule(t *testing.T) {
	if got := DeltaDays(mustDate(t, "2024-01-31"), domain.RepeatRule{}, 2); got != 0 {
		t.Errorf("expected 0 for non-repeating rule, got %d", got)
	}
}
