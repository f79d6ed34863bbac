package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Call cases
		r.Post("/calls", h.ProcessCall)
		r.Get("/calls", h.ListCases)
		r.Get("/calls/{id}", h.GetCase)
		r.Get("/calls/{id}/events", h.ListCaseEvents)

		// Approval state machine
		r.Post("/calls/{id}/approve", h.ApproveCase)
		r.Post("/calls/{id}/reject", h.RejectCase)

		// Decision engine re-run
		r.Post("/calls/{id}/redecide", h.RedecideCase)

		// CRM resync
		r.Post("/calls/{id}/crm-sync", h.SyncCaseToCRM)

		// Dashboard
		r.Get("/metrics/dashboard", h.Dashboard)
	})
}
