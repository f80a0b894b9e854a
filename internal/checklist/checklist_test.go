package checklist

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

func setupChecklistFixture(t *testing.T) (*store.Store, string, string) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	actorUUID := uuid.NewString()
	_, err = database.Exec(
		"INSERT INTO actors (uuid, id, slug, role) VALUES (?, ?, ?, ?)",
		actorUUID, "A-00001", "test-actor", "human",
	)
	if err != nil {
		t.Fatalf("failed to seed actor: %v", err)
	}

	s := store.New(database)
	for _, params := range []store.TemplateParams{
		{StateCode: "TX", Type: domain.TransactionTypeListing, StageID: 1,
			Name: "Order sign", FieldID: 1, OffsetDays: 3},
		{StateCode: "TX", Type: domain.TransactionTypeListing, StageID: 1,
			Name: "Price review", FieldID: 1, OffsetDays: 5,
			Repeat: domain.RepeatRule{Frequency: 2, Interval: 1, Unit: "week"}},
		{StateCode: "TX", Type: domain.TransactionTypeListing, StageID: 2,
			Name: "Inspection prep", FieldID: 4, OffsetDays: -2},
	} {
		if _, err := s.Templates.Create(actorUUID, params); err != nil {
			t.Fatalf("failed to seed template: %v", err)
		}
	}

	result, err := s.Transactions.Open(actorUUID, store.OpenParams{
		Slug: "42-oak-ave", Type: domain.TransactionTypeListing, StateCode: "TX",
	})
	if err != nil {
		t.Fatalf("failed to open transaction: %v", err)
	}
	return s, actorUUID, result.UUID
}

func TestAggregateResolvesDueDates(t *testing.T) {
	s, actor, txnUUID := setupChecklistFixture(t)

	if err := s.Dates.Set(actor, txnUUID, 1, 1, "2024-03-01"); err != nil {
		t.Fatalf("failed to set anchor: %v", err)
	}

	cl, err := Aggregate(s, txnUUID, 0)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if cl.CurrentStage != 1 {
		t.Errorf("expected current stage 1, got %d", cl.CurrentStage)
	}
	if len(cl.Stages) != 1 {
		t.Fatalf("expected 1 stage with instances, got %d", len(cl.Stages))
	}

	stage := cl.Stages[0]
	if stage.StageID != 1 || stage.Total != 4 || stage.Completed != 0 {
		t.Errorf("unexpected stage summary: %+v", stage)
	}

	// Anchor 2024-03-01: offsets 3, 5, 12, 19.
	want := []string{"2024-03-04", "2024-03-06", "2024-03-13", "2024-03-20"}
	for i, item := range stage.Items {
		if item.Due == nil {
			t.Errorf("item %d: expected resolved due date", item.InstanceID)
			continue
		}
		if *item.Due != want[i] {
			t.Errorf("item %d: expected due %s, got %s", item.InstanceID, want[i], *item.Due)
		}
	}
}

func TestAggregatePendingAndOverrides(t *testing.T) {
	s, actor, txnUUID := setupChecklistFixture(t)

	// No anchor entered: everything pending except the explicit override.
	if err := s.Instances.SetDueDate(actor, txnUUID, 1, "2024-06-15", nil); err != nil {
		t.Fatalf("failed to set due date: %v", err)
	}

	cl, err := Aggregate(s, txnUUID, 1)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	for _, item := range cl.Stages[0].Items {
		if item.InstanceID == 1 {
			if item.Due == nil || *item.Due != "2024-06-15" {
				t.Errorf("expected explicit due 2024-06-15, got %v", item.Due)
			}
			continue
		}
		if item.Due != nil {
			t.Errorf("item %d: expected pending, got %s", item.InstanceID, *item.Due)
		}
	}
}

func TestAggregateExplicitDueWinsOverSchedule(t *testing.T) {
	s, actor, txnUUID := setupChecklistFixture(t)

	if err := s.Dates.Set(actor, txnUUID, 1, 1, "2024-03-01"); err != nil {
		t.Fatalf("failed to set anchor: %v", err)
	}
	if err := s.Instances.SetDueDate(actor, txnUUID, 1, "2024-07-01", nil); err != nil {
		t.Fatalf("failed to set due date: %v", err)
	}

	cl, err := Aggregate(s, txnUUID, 1)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	item := cl.Stages[0].Items[0]
	if item.Due == nil || *item.Due != "2024-07-01" {
		t.Errorf("expected override 2024-07-01 to win, got %v", item.Due)
	}
}

func TestAggregateCountsAndRemoveFlag(t *testing.T) {
	s, actor, txnUUID := setupChecklistFixture(t)

	if err := s.Instances.SetStatus(actor, txnUUID, 1, "Completed", ""); err != nil {
		t.Fatalf("failed to complete task: %v", err)
	}
	if err := s.Instances.SetStatus(actor, txnUUID, 2, "Open", "not needed this cycle"); err != nil {
		t.Fatalf("failed to skip task: %v", err)
	}

	cl, err := Aggregate(s, txnUUID, 1)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	stage := cl.Stages[0]
	if stage.Completed != 1 {
		t.Errorf("expected 1 completed, got %d", stage.Completed)
	}

	for _, item := range stage.Items {
		switch item.InstanceID {
		case 1:
			if !item.Remove {
				t.Error("completed item should carry the remove hint")
			}
		case 2:
			if item.Remove {
				t.Error("skipped item must not carry the remove hint")
			}
			if !item.Skipped || item.SkipReason == nil {
				t.Error("expected skip state on item 2")
			}
		default:
			if item.Remove {
				t.Errorf("open item %d flagged for removal", item.InstanceID)
			}
		}
	}
}
