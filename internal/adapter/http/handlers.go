package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/signal"
	"github.com/calldeck/calldeck/internal/port/messagequeue"
	"github.com/calldeck/calldeck/internal/resilience"
	"github.com/calldeck/calldeck/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Intake    *service.IntakeService
	Cases     *service.CaseService
	Approvals *service.ApprovalService
	CRMSync   *service.CRMSyncService
	Queue     messagequeue.Queue
	Breaker   *resilience.Breaker
	Pool      *pgxpool.Pool
}

// intakeRequest is the body of POST /api/v1/calls: the upstream call
// reference plus the analysed signal bundle.
type intakeRequest struct {
	CallRef string `json:"call_ref"`
	signal.Bundle
}

// ProcessCall decides a signal bundle and creates the pending case.
func (h *Handlers) ProcessCall(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[intakeRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.CallRef, "call_ref") {
		return
	}

	rec, err := h.Intake.ProcessCall(r.Context(), req.CallRef, req.Bundle)
	if err != nil {
		writeDomainError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListCases returns cases newest first, optionally filtered by ?status=.
func (h *Handlers) ListCases(w http.ResponseWriter, r *http.Request) {
	status := caserecord.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	cases, err := h.Cases.ListCases(r.Context(), status, limit)
	if err != nil {
		writeDomainError(w, err, "cases not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cases": cases,
		"count": len(cases),
	})
}

// GetCase returns one case with its reminder history.
func (h *Handlers) GetCase(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Cases.GetCase(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListCaseEvents returns the audit trail for a case.
func (h *Handlers) ListCaseEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Cases.ListEvents(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// transitionRequest is the body of the approve and reject endpoints.
type transitionRequest struct {
	Actor string `json:"actor"`
	Notes string `json:"notes,omitempty"`
}

// ApproveCase moves a pending case to approved.
func (h *Handlers) ApproveCase(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Approvals.Approve)
}

// RejectCase moves a pending case to rejected.
func (h *Handlers) RejectCase(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Approvals.Reject)
}

func (h *Handlers) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id string, tr caserecord.Transition) (*caserecord.Record, error),
) {
	req, ok := readJSON[transitionRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Actor, "actor") {
		return
	}

	rec, err := apply(r.Context(), urlParam(r, "id"), caserecord.Transition{
		Actor: req.Actor,
		Notes: req.Notes,
	})
	if err != nil {
		writeDomainError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// RedecideCase reruns the decision engine over a stored bundle.
func (h *Handlers) RedecideCase(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Intake.Redecide(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SyncCaseToCRM manually re-pushes an approved case to the CRM.
func (h *Handlers) SyncCaseToCRM(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Cases.GetCase(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "case not found")
		return
	}
	if err := h.CRMSync.SyncCase(r.Context(), rec); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// Dashboard returns aggregate case metrics.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Cases.Dashboard(r.Context())
	if err != nil {
		writeDomainError(w, err, "metrics unavailable")
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// Health reports service liveness and dependency status.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}

	if h.Pool != nil {
		if err := h.Pool.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["postgres"] = "down"
		} else {
			status["postgres"] = "up"
		}
	}
	if h.Queue != nil {
		if h.Queue.IsConnected() {
			status["nats"] = "up"
		} else {
			status["status"] = "degraded"
			status["nats"] = "down"
		}
	}
	if h.Breaker != nil {
		status["notification_breaker"] = h.Breaker.State()
	}

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
