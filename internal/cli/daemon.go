package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/actors"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/address"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/catalog"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/checklist"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/config"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/notify"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

// DaemonOptions configures the tmsd daemon.
type DaemonOptions struct {
	Addr   string
	Unix   string
	Token  string
	DBPath string
}

// ServeDaemon starts the tmsd daemon.
func ServeDaemon(opts DaemonOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.RequiresMigrationError(); err != nil {
		database.Close()
		return err
	}

	server := &daemonServer{
		db:    database,
		cfg:   cfg,
		store: store.New(database),
		token: opts.Token,
	}

	mux := http.NewServeMux()
	server.registerRoutes(mux)

	httpServer := &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	if opts.Unix != "" {
		_ = os.Remove(opts.Unix)
		listener, err := net.Listen("unix", opts.Unix)
		if err != nil {
			database.Close()
			return fmt.Errorf("failed to listen on unix socket: %w", err)
		}
		defer listener.Close()
		return httpServer.Serve(listener)
	}

	addr := opts.Addr
	if addr == "" {
		addr = "127.0.0.1:7272"
	}
	httpServer.Addr = addr

	return httpServer.ListenAndServe()
}

type daemonServer struct {
	db    *db.DB
	cfg   *config.Config
	store *store.Store
	token string
}

func (s *daemonServer) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/health", s.withAuth(s.handleHealth))

	mux.HandleFunc("/v1/transactions/list", s.withAuth(s.handleTransactionsList))
	mux.HandleFunc("/v1/transactions/open", s.withAuth(s.handleTransactionsOpen))
	mux.HandleFunc("/v1/transactions/get", s.withAuth(s.handleTransactionsGet))
	mux.HandleFunc("/v1/transactions/transition", s.withAuth(s.handleTransactionsTransition))
	mux.HandleFunc("/v1/transactions/delete", s.withAuth(s.handleTransactionsDelete))

	mux.HandleFunc("/v1/dates/set", s.withAuth(s.handleDatesSet))
	mux.HandleFunc("/v1/dates/list", s.withAuth(s.handleDatesList))

	mux.HandleFunc("/v1/checklist/get", s.withAuth(s.handleChecklistGet))
	mux.HandleFunc("/v1/checklist/expand", s.withAuth(s.handleChecklistExpand))

	mux.HandleFunc("/v1/tasks/status", s.withAuth(s.handleTasksStatus))
	mux.HandleFunc("/v1/tasks/due", s.withAuth(s.handleTasksDue))
	mux.HandleFunc("/v1/tasks/days", s.withAuth(s.handleTasksDays))
	mux.HandleFunc("/v1/tasks/duplicate", s.withAuth(s.handleTasksDuplicate))

	mux.HandleFunc("/v1/templates/list", s.withAuth(s.handleTemplatesList))
	mux.HandleFunc("/v1/templates/import", s.withAuth(s.handleTemplatesImport))

	mux.HandleFunc("/v1/actors/list", s.withAuth(s.handleActorsList))
	mux.HandleFunc("/v1/actors/create", s.withAuth(s.handleActorsCreate))
}

func (s *daemonServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			token := r.Header.Get("Authorization")
			if strings.HasPrefix(token, "Bearer ") {
				token = strings.TrimPrefix(token, "Bearer ")
			}
			if token == "" {
				token = r.Header.Get("X-Tmsd-Token")
			}
			if token != s.token {
				s.writeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
				return
			}
		}

		next(w, r)
	}
}

func (s *daemonServer) decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *daemonServer) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *daemonServer) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]interface{}{
		"message": err.Error(),
	})
}

// writeDomainError maps domain errors onto HTTP statuses: stale stage
// preconditions are conflicts the caller should refetch and retry, missing
// resources are 404, malformed input is 400.
func (s *daemonServer) writeDomainError(w http.ResponseWriter, err error) {
	var stale *domain.StaleStageError
	var notFound *domain.NotFoundError
	var invalid *domain.ValidationError

	switch {
	case errors.As(err, &stale):
		s.writeError(w, http.StatusConflict, err)
	case errors.As(err, &notFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.As(err, &invalid):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *daemonServer) resolveActorUUID(r *http.Request) (string, error) {
	identifier := r.Header.Get("X-Tms-Actor")
	if identifier == "" {
		identifier = s.cfg.GetActorID()
	}
	if identifier == "" {
		return "", fmt.Errorf("no actor configured (set X-Tms-Actor header or TMS_ACTOR)")
	}

	resolver := actors.NewResolver(s.db.DB)
	return resolver.Resolve(identifier)
}

func (s *daemonServer) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return false
	}
	return true
}

func (s *daemonServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *daemonServer) handleTransactionsList(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	txns, err := s.store.Transactions.List()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txns,
	})
}

type transactionsOpenRequest struct {
	Address    string `json:"address"`
	Type       string `json:"txn_type"`
	StateCode  string `json:"state_code"`
	PriceCents int64  `json:"price_cents,omitempty"`
}

func (s *daemonServer) handleTransactionsOpen(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req transactionsOpenRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	slug, err := address.Slug(req.Address)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.store.Transactions.Open(actorUUID, store.OpenParams{
		Slug:       slug,
		Type:       domain.TransactionType(req.Type),
		StateCode:  req.StateCode,
		PriceCents: req.PriceCents,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"uuid":              result.UUID,
		"id":                result.ID,
		"slug":              slug,
		"instances_created": result.InstancesCreated,
	})
}

type transactionSelectorRequest struct {
	Transaction string `json:"transaction"`
}

func (s *daemonServer) handleTransactionsGet(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req transactionSelectorRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	txn, err := s.store.Transactions.GetByUUID(txnUUID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction": txn,
	})
}

type transitionRequest struct {
	Transaction string `json:"transaction"`
	FromStage   int    `json:"from_stage"`
	ToStage     int    `json:"to_stage"`
}

func (s *daemonServer) handleTransactionsTransition(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req transitionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if err := s.store.Transactions.Transition(actorUUID, txnUUID, req.FromStage, req.ToStage); err != nil {
		s.writeDomainError(w, err)
		return
	}

	go notify.DispatchStageChange(s.db, s.cfg.WebhookURLs, txnUUID, req.FromStage, req.ToStage)

	txn, err := s.store.Transactions.GetByUUID(txnUUID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction": txn,
	})
}

func (s *daemonServer) handleTransactionsDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req transactionSelectorRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if err := s.store.Transactions.Delete(actorUUID, txnUUID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

type datesSetRequest struct {
	Transaction string `json:"transaction"`
	StageID     int    `json:"stage_id,omitempty"`
	FieldID     int    `json:"field_id"`
	Date        string `json:"date"`
}

func (s *daemonServer) handleDatesSet(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req datesSetRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	stageID := req.StageID
	if stageID == 0 {
		txn, err := s.store.Transactions.GetByUUID(txnUUID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		stageID = txn.StageID
	}

	if err := s.store.Dates.Set(actorUUID, txnUUID, stageID, req.FieldID, req.Date); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

type datesListRequest struct {
	Transaction string `json:"transaction"`
	StageID     int    `json:"stage_id,omitempty"`
}

func (s *daemonServer) handleDatesList(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req datesListRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	anchors, err := s.store.Dates.List(txnUUID, req.StageID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"dates": anchors,
	})
}

type checklistGetRequest struct {
	Transaction string `json:"transaction"`
	StageID     int    `json:"stage_id,omitempty"`
}

func (s *daemonServer) handleChecklistGet(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req checklistGetRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	cl, err := checklist.Aggregate(s.store, txnUUID, req.StageID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"checklist": cl,
	})
}

type checklistExpandRequest struct {
	Transaction string `json:"transaction"`
	StageID     int    `json:"stage_id"`
}

func (s *daemonServer) handleChecklistExpand(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req checklistExpandRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	created, err := s.store.Instances.ExpandStage(actorUUID, txnUUID, req.StageID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"instances_created": created,
	})
}

type tasksStatusRequest struct {
	Transaction string `json:"transaction"`
	InstanceID  int    `json:"instance_id"`
	Status      string `json:"status"`
	SkipReason  string `json:"skip_reason,omitempty"`
}

func (s *daemonServer) handleTasksStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req tasksStatusRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if err := s.store.Instances.SetStatus(actorUUID, txnUUID, req.InstanceID, req.Status, req.SkipReason); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

type tasksDueRequest struct {
	Transaction string  `json:"transaction"`
	InstanceID  int     `json:"instance_id"`
	Date        string  `json:"date"`
	Notes       *string `json:"notes,omitempty"`
}

func (s *daemonServer) handleTasksDue(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req tasksDueRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if err := s.store.Instances.SetDueDate(actorUUID, txnUUID, req.InstanceID, req.Date, req.Notes); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

type tasksDaysRequest struct {
	Transaction string `json:"transaction"`
	InstanceID  int    `json:"instance_id"`
	Days        int    `json:"days"`
}

func (s *daemonServer) handleTasksDays(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req tasksDaysRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if err := s.store.Instances.SetTaskDays(actorUUID, txnUUID, req.InstanceID, req.Days); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

type tasksDuplicateRequest struct {
	Transaction string `json:"transaction"`
	InstanceID  int    `json:"instance_id"`
	Count       int    `json:"count"`
	Interval    int    `json:"interval"`
	Unit        string `json:"unit"`
}

func (s *daemonServer) handleTasksDuplicate(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req tasksDuplicateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	txnUUID, err := s.store.Transactions.Resolve(req.Transaction)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	ids, err := s.store.Instances.Duplicate(actorUUID, txnUUID, req.InstanceID, req.Count, req.Interval, req.Unit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"instance_ids": ids,
	})
}

func (s *daemonServer) handleTemplatesList(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	templates, err := s.store.Templates.ListAll()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
	})
}

type templatesImportRequest struct {
	Catalog string `json:"catalog"` // YAML document
}

func (s *daemonServer) handleTemplatesImport(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req templatesImportRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actorUUID, err := s.resolveActorUUID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := catalog.Import(s.store, actorUUID, []byte(req.Catalog))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"created": result.Created,
		"updated": result.Updated,
	})
}

func (s *daemonServer) handleActorsList(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	list, err := actors.NewResolver(s.db.DB).List()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"actors": list,
	})
}

type actorsCreateRequest struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

func (s *daemonServer) handleActorsCreate(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req actorsCreateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	role := req.Role
	if role == "" {
		role = "agent"
	}

	actor, err := actors.NewResolver(s.db.DB).Create(req.Slug, req.DisplayName, role)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"actor": actor,
	})
}
