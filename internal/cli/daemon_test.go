package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/config"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/testutil"
)

func setupDaemon(t *testing.T, token string) (*http.ServeMux, *daemonServer, string) {
	t.Helper()

	database, _ := testutil.TempDB(t)
	actorUUID := testutil.SeedActor(t, database, "daemon-tester")

	server := &daemonServer{
		db:    database,
		cfg:   &config.Config{},
		store: store.New(database),
		token: token,
	}
	mux := http.NewServeMux()
	server.registerRoutes(mux)
	return mux, server, actorUUID
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestDaemonRejectsMissingToken(t *testing.T) {
	mux, _, _ := setupDaemon(t, "secret")

	rec := postJSON(t, mux, "/v1/transactions/list", map[string]string{}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = postJSON(t, mux, "/v1/transactions/list", map[string]string{}, map[string]string{
		"Authorization": "Bearer secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDaemonOpenAndGet(t *testing.T) {
	mux, _, _ := setupDaemon(t, "")

	headers := map[string]string{"X-Tms-Actor": "daemon-tester"}
	rec := postJSON(t, mux, "/v1/transactions/open", map[string]interface{}{
		"address":    "123 Main St",
		"txn_type":   "listing",
		"state_code": "TX",
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var opened struct {
		UUID string `json:"uuid"`
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}
	if opened.Slug != "123-main-st" {
		t.Errorf("expected normalized slug, got %q", opened.Slug)
	}

	rec = postJSON(t, mux, "/v1/transactions/get", map[string]string{
		"transaction": opened.ID,
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDaemonMapsDomainErrors(t *testing.T) {
	mux, _, _ := setupDaemon(t, "")
	headers := map[string]string{"X-Tms-Actor": "daemon-tester"}

	// Unknown transaction resolves to 404.
	rec := postJSON(t, mux, "/v1/transactions/get", map[string]string{
		"transaction": "no-such-property",
	}, headers)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown transaction, got %d", rec.Code)
	}

	rec = postJSON(t, mux, "/v1/transactions/open", map[string]interface{}{
		"address":    "9 Elm St",
		"txn_type":   "listing",
		"state_code": "TX",
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var opened struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}

	// Stale stage precondition maps to 409.
	rec = postJSON(t, mux, "/v1/transactions/transition", map[string]interface{}{
		"transaction": opened.ID,
		"from_stage":  3,
		"to_stage":    4,
	}, headers)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for stale stage, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same-stage transition is a validation error, 400.
	rec = postJSON(t, mux, "/v1/transactions/transition", map[string]interface{}{
		"transaction": opened.ID,
		"from_stage":  1,
		"to_stage":    1,
	}, headers)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for same-stage transition, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDaemonExpandPopulatesLaterStage(t *testing.T) {
	mux, server, actorUUID := setupDaemon(t, "")
	headers := map[string]string{"X-Tms-Actor": "daemon-tester"}

	_, err := server.store.Templates.Create(actorUUID, store.TemplateParams{
		StateCode: "TX", Type: domain.TransactionTypeListing, StageID: 2,
		Name: "Schedule inspection", FieldID: 1, OffsetDays: 3,
	})
	if err != nil {
		t.Fatalf("failed to seed template: %v", err)
	}

	rec := postJSON(t, mux, "/v1/transactions/open", map[string]interface{}{
		"address":    "77 Birch Rd",
		"txn_type":   "listing",
		"state_code": "TX",
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var opened struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}

	rec = postJSON(t, mux, "/v1/transactions/transition", map[string]interface{}{
		"transaction": opened.ID,
		"from_stage":  1,
		"to_stage":    2,
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("transition: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, mux, "/v1/checklist/expand", map[string]interface{}{
		"transaction": opened.ID,
		"stage_id":    2,
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("expand: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var expanded struct {
		InstancesCreated int `json:"instances_created"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &expanded); err != nil {
		t.Fatalf("decode expand response: %v", err)
	}
	if expanded.InstancesCreated != 1 {
		t.Errorf("expected 1 instance created, got %d", expanded.InstancesCreated)
	}

	// Rerunning is a no-op, not a duplicate.
	rec = postJSON(t, mux, "/v1/checklist/expand", map[string]interface{}{
		"transaction": opened.ID,
		"stage_id":    2,
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("expand again: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &expanded); err != nil {
		t.Fatalf("decode expand response: %v", err)
	}
	if expanded.InstancesCreated != 0 {
		t.Errorf("expected rerun to create 0 instances, got %d", expanded.InstancesCreated)
	}

	rec = postJSON(t, mux, "/v1/checklist/get", map[string]interface{}{
		"transaction": opened.ID,
		"stage_id":    2,
	}, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("checklist: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Checklist struct {
			Stages []struct {
				StageID int `json:"stage_id"`
				Total   int `json:"total"`
			} `json:"stages"`
		} `json:"checklist"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode checklist response: %v", err)
	}
	if len(got.Checklist.Stages) != 1 || got.Checklist.Stages[0].StageID != 2 || got.Checklist.Stages[0].Total != 1 {
		t.Errorf("expected stage 2 checklist with 1 task, got %+v", got.Checklist.Stages)
	}
}
