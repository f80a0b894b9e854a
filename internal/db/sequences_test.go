package db

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func insertActor(t *testing.T, database *DB, uuid, id, slug string) {
	t.Helper()
	_, err := database.Exec(
		"INSERT INTO actors (uuid, id, slug, role) VALUES (?, ?, ?, 'human')",
		uuid, id, slug,
	)
	if err != nil {
		t.Fatalf("failed to insert actor: %v", err)
	}
}

func TestNextActorSeq(t *testing.T) {
	database := openTestDB(t)

	seq, err := NextActorSeq(database)
	if err != nil {
		t.Fatalf("NextActorSeq failed: %v", err)
	}
	if seq != 1 {
		t.Errorf("expected 1 on empty table, got %d", seq)
	}

	insertActor(t, database, "00000000-0000-4000-8000-000000000001", "A-00007", "alice")

	seq, err = NextActorSeq(database)
	if err != nil {
		t.Fatalf("NextActorSeq failed: %v", err)
	}
	if seq != 8 {
		t.Errorf("expected 8 after A-00007, got %d", seq)
	}
}

func TestNextInstanceIDIsPerTransaction(t *testing.T) {
	database := openTestDB(t)
	insertActor(t, database, "00000000-0000-4000-8000-000000000001", "A-00001", "alice")

	for _, txn := range []struct{ uuid, id, slug string }{
		{"00000000-0000-4000-8000-0000000000aa", "TXN-00001", "1-main-st"},
		{"00000000-0000-4000-8000-0000000000bb", "TXN-00002", "2-main-st"},
	} {
		_, err := database.Exec(`
			INSERT INTO transactions (uuid, id, slug, txn_type, state_code, created_by_actor_uuid, updated_by_actor_uuid)
			VALUES (?, ?, ?, 'listing', 'CA', '00000000-0000-4000-8000-000000000001', '00000000-0000-4000-8000-000000000001')
		`, txn.uuid, txn.id, txn.slug)
		if err != nil {
			t.Fatalf("failed to insert transaction: %v", err)
		}
	}

	first := "00000000-0000-4000-8000-0000000000aa"
	second := "00000000-0000-4000-8000-0000000000bb"

	for i := 1; i <= 3; i++ {
		_, err := database.Exec(`
			INSERT INTO task_instances (transaction_uuid, instance_id, template_task_id, stage_id, name, created_by_actor_uuid, updated_by_actor_uuid)
			VALUES (?, ?, 1, 1, 'task', '00000000-0000-4000-8000-000000000001', '00000000-0000-4000-8000-000000000001')
		`, first, i)
		if err != nil {
			t.Fatalf("failed to insert instance: %v", err)
		}
	}

	seq, err := NextInstanceID(database, first)
	if err != nil {
		t.Fatalf("NextInstanceID failed: %v", err)
	}
	if seq != 4 {
		t.Errorf("expected 4 for first transaction, got %d", seq)
	}

	seq, err = NextInstanceID(database, second)
	if err != nil {
		t.Fatalf("NextInstanceID failed: %v", err)
	}
	if seq != 1 {
		t.Errorf("expected 1 for untouched transaction, got %d", seq)
	}
}

func TestNextTemplateTaskIDScopedByStageStateType(t *testing.T) {
	database := openTestDB(t)

	_, err := database.Exec(`
		INSERT INTO task_templates (state_code, txn_type, stage_id, task_id, name, field_id, offset_days)
		VALUES ('CA', 'listing', 1, 5, 'Order sign', 1, 0)
	`)
	if err != nil {
		t.Fatalf("failed to insert template: %v", err)
	}

	seq, err := NextTemplateTaskID(database, "CA", "listing", 1)
	if err != nil {
		t.Fatalf("NextTemplateTaskID failed: %v", err)
	}
	if seq != 6 {
		t.Errorf("expected 6 in occupied scope, got %d", seq)
	}

	// Different stage, state, or type each restart the sequence.
	for _, scope := range []struct {
		state string
		typ   string
		stage int
	}{
		{"CA", "listing", 2},
		{"CA", "buyer", 1},
		{"TX", "listing", 1},
	} {
		seq, err := NextTemplateTaskID(database, scope.state, scope.typ, scope.stage)
		if err != nil {
			t.Fatalf("NextTemplateTaskID failed: %v", err)
		}
		if seq != 1 {
			t.Errorf("expected 1 in scope %+v, got %d", scope, seq)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := openTestDB(t)

	applied, err := database.MigrateWithInfo()
	if err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no migrations on second run, got %v", applied)
	}

	if err := database.RequiresMigrationError(); err != nil {
		t.Errorf("expected no pending migrations, got %v", err)
	}
}
