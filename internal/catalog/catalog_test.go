package catalog

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

func setupCatalogStore(t *testing.T) (*store.Store, string) {
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
		actorUUID, "A-00001", "test-actor", "system",
	)
	if err != nil {
		t.Fatalf("failed to seed actor: %v", err)
	}

	return store.New(database), actorUUID
}

func TestImportCreatesAndUpdates(t *testing.T) {
	s, actor := setupCatalogStore(t)

	first := []byte(`
version: 1
templates:
  - state_code: TX
    txn_type: listing
    stage_id: 1
    name: Order sign
    field_id: 1
    offset_days: 2
  - state_code: TX
    txn_type: listing
    stage_id: 1
    name: Price review
    field_id: 1
    offset_days: 7
    repeat:
      frequency: 3
      interval: 2
      unit: week
`)
	result, err := Import(s, actor, first)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 {
		t.Errorf("expected 2 created, got %+v", result)
	}

	// Re-import with task ids: updates in place, no duplicates.
	second := []byte(`
version: 1
templates:
  - state_code: TX
    txn_type: listing
    stage_id: 1
    task_id: 1
    name: Order sign and lockbox
    field_id: 1
    offset_days: 2
`)
	result, err = Import(s, actor, second)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Errorf("expected 1 updated, got %+v", result)
	}

	templates, err := s.Templates.ListAll()
	if err != nil {
		t.Fatalf("failed to list templates: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates after update, got %d", len(templates))
	}
	if templates[0].Name != "Order sign and lockbox" {
		t.Errorf("update not applied: %q", templates[0].Name)
	}
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	s, actor := setupCatalogStore(t)

	_, err := Import(s, actor, []byte("version: 99\ntemplates: []\n"))
	if err == nil || !strings.Contains(err.Error(), "unsupported catalog version") {
		t.Errorf("expected version error, got %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s, actor := setupCatalogStore(t)

	if _, err := Seed(s, actor); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	exported, err := Export(s)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// Exported catalog carries task ids, so importing it back only updates.
	result, err := Import(s, actor, exported)
	if err != nil {
		t.Fatalf("round-trip import failed: %v", err)
	}
	if result.Created != 0 {
		t.Errorf("round trip created %d templates, want 0", result.Created)
	}
}

func TestDiff(t *testing.T) {
	s, actor := setupCatalogStore(t)

	if _, err := s.Templates.Create(actor, store.TemplateParams{
		StateCode: "TX", Type: domain.TransactionTypeListing, StageID: 1,
		Name: "Order sign", FieldID: 1, OffsetDays: 2,
	}); err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	exported, err := Export(s)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// Identical file: no diff.
	text, err := Diff(s, exported)
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty diff, got:\n%s", text)
	}

	// Changed name shows up as a hunk.
	changed := strings.Replace(string(exported), "Order sign", "Order sign and flyer box", 1)
	text, err = Diff(s, []byte(changed))
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if !strings.Contains(text, "-") || !strings.Contains(text, "Order sign and flyer box") {
		t.Errorf("expected unified diff with the change, got:\n%s", text)
	}
}

func TestSeedSkipsPopulatedCatalog(t *testing.T) {
	s, actor := setupCatalogStore(t)

	first, err := Seed(s, actor)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if first.Created == 0 {
		t.Fatalf("expected seed to create templates on an empty catalog")
	}
	before, err := s.Templates.ListAll()
	if err != nil {
		t.Fatalf("failed to list templates: %v", err)
	}

	second, err := Seed(s, actor)
	if err != nil {
		t.Fatalf("re-seed failed: %v", err)
	}
	if second.Created != 0 || second.Updated != 0 {
		t.Errorf("expected re-seed to be a no-op, got %+v", second)
	}
	after, err := s.Templates.ListAll()
	if err != nil {
		t.Fatalf("failed to list templates: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("re-seed changed template count from %d to %d", len(before), len(after))
	}

	// A curated catalog is also left alone, even without the defaults.
	s2, actor2 := setupCatalogStore(t)
	if _, err := s2.Templates.Create(actor2, store.TemplateParams{
		StateCode: "TX", Type: domain.TransactionTypeListing, StageID: 1,
		Name: "Order sign", FieldID: 1, OffsetDays: 2,
	}); err != nil {
		t.Fatalf("failed to create template: %v", err)
	}
	result, err := Seed(s2, actor2)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if result.Created != 0 || result.Updated != 0 {
		t.Errorf("expected seed to skip a curated catalog, got %+v", result)
	}
	templates, err := s2.Templates.ListAll()
	if err != nil {
		t.Fatalf("failed to list templates: %v", err)
	}
	if len(templates) != 1 {
		t.Errorf("expected the single curated template to survive, got %d", len(templates))
	}
}
