package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gastitos/internal/core"
	"gastitos/internal/form"
	applog "gastitos/internal/log"
)

const msgInvalidInput = "Datos inválidos"

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady reports whether the store can be initialized.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.transactions.Initialize(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}
	checks["ledger"] = map[string]any{"transactions": s.workflow.Ledger().Len(), "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients(), "status": "ok"}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %d\n\n", name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", s.traceMiddleware.Requests())
	metric("transactions_created_total", "Transactions created", "counter", s.appMetrics.created.Load())
	metric("transactions_updated_total", "Transactions updated", "counter", s.appMetrics.updated.Load())
	metric("transactions_deleted_total", "Transactions deleted", "counter", s.appMetrics.deleted.Load())
	metric("store_alerts_total", "Writes refused by the store", "counter", s.appMetrics.alerts.Load())
	metric("transactions_cached", "Transactions held in memory", "gauge", int64(s.workflow.Ledger().Len()))
	metric("rate_limit_rejected_total", "Requests refused by the rate limiter", "counter", s.rateLimiter.Rejected())
	metric("rate_limit_active_clients", "Clients tracked by the rate limiter", "gauge", int64(s.rateLimiter.ActiveClients()))
	metric("suspicious_requests_total", "Requests matching probe patterns", "counter", s.securityDetector.Suspicious())
	metric("uptime_seconds", "Seconds since start", "gauge", int64(time.Since(s.appMetrics.uptime).Seconds()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(categoriesView()).Write(w)
}

// handleDashboard returns the summary and the recent transactions, or all
// of them with ?all=1.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all")
	d := s.workflow.Ledger().Dashboard(all == "1" || all == "true")
	NewJSONResponse().Body(newDashboardView(d)).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.workflow.Ledger().Snapshot()
	NewJSONResponse().Body(map[string]any{
		"count":        len(txs),
		"transactions": transactionViews(txs),
	}).Write(w)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	m := s.workflow.Ledger().Month(s.now())
	NewJSONResponse().Body(newMonthView(m)).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	t, found, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		s.sl.LogError(r.Context(), "Failed to read transaction", err, applog.ComponentHTTP, applog.OpRead,
			applog.NewFields().WithTransaction(id, "", "", ""))
		InternalServerError("Error al leer la transacción").Write(w)
		return
	}
	if !found {
		NotFoundError("Transacción no encontrada").Write(w)
		return
	}
	NewJSONResponse().Body(newTransactionView(t, core.AppearanceFor(t.Category, t.Kind))).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w)
		return
	}

	kind, err := core.ParseKind(p.Get("type"))
	if err != nil {
		UnprocessableEntityError(msgInvalidInput, err.Error()).Write(w)
		return
	}

	d := s.workflow.NewDialog()
	if err := d.Open(kind); err != nil {
		InternalServerError(err.Error()).Write(w)
		return
	}
	defer d.Close()

	if err := d.SetDraft(p.Draft()); err != nil {
		InternalServerError(err.Error()).Write(w)
		return
	}

	t, err := d.Submit(r.Context())
	if err != nil {
		s.writeSubmitError(w, r, err)
		return
	}

	s.appMetrics.created.Add(1)
	s.sl.LogTransactionChanged(r.Context(), applog.OpCreate, t.ID, string(t.Kind), t.Amount.String(), t.Category)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", fmt.Sprintf("/api/transactions/%d", t.ID)).
		Body(newTransactionView(t, core.AppearanceFor(t.Category, t.Kind))).
		Write(w)
}

// handleUpdateTransaction edits amount, description and category. Kind and
// date stay as stored.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	existing, ok := s.workflow.Ledger().Find(id)
	if !ok {
		NotFoundError("Transacción no encontrada").Write(w)
		return
	}

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w)
		return
	}

	d := s.workflow.NewDialog()
	if err := d.OpenEdit(existing); err != nil {
		InternalServerError(err.Error()).Write(w)
		return
	}
	defer d.Close()

	draft := d.Draft()
	// Fields left out of the body keep their current value.
	if p.Has("amount") {
		draft.Amount = p.Get("amount")
	}
	if p.Has("description") {
		draft.Description = p.Get("description")
	}
	if p.Has("category") {
		draft.Category = p.Get("category")
	}
	if err := d.SetDraft(draft); err != nil {
		InternalServerError(err.Error()).Write(w)
		return
	}

	t, err := d.Submit(r.Context())
	if err != nil {
		s.writeSubmitError(w, r, err)
		return
	}

	s.appMetrics.updated.Add(1)
	s.sl.LogTransactionChanged(r.Context(), applog.OpUpdate, t.ID, string(t.Kind), t.Amount.String(), t.Category)
	NewJSONResponse().Body(newTransactionView(t, core.AppearanceFor(t.Category, t.Kind))).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.workflow.Delete(r.Context(), id); err != nil {
		s.writeSubmitError(w, r, err)
		return
	}

	s.appMetrics.deleted.Add(1)
	s.sl.LogTransactionChanged(r.Context(), applog.OpDelete, id, "", "", "")
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// writeSubmitError maps workflow errors: rejected input is 422, a store
// alert is 500 carrying the alert message.
func (s *Server) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var alert *form.Alert
	switch {
	case errors.Is(err, form.ErrRejected):
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction input rejected",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeValidation)
		UnprocessableEntityError(msgInvalidInput, err.Error()).Write(w)
	case errors.As(err, &alert):
		s.appMetrics.alerts.Add(1)
		s.sl.LogError(r.Context(), "Store refused write", alert.Err, applog.ComponentHTTP, alert.Op, nil)
		InternalServerError(alert.Message).Write(w)
	default:
		s.sl.LogError(r.Context(), "Unexpected workflow error", err, applog.ComponentHTTP, "", nil)
		InternalServerError("Error interno").Write(w)
	}
}
