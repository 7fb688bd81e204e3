package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// actorHeader names the caller recorded in the audit log for activation
// changes.
const actorHeader = "X-Actor"

// handleListWebhooks lists the webhooks owned by ?userId=.
func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := s.webhookSvc.ListByUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		s.writeServiceError(w, err, "failed to list webhooks")
		return
	}
	writeJSON(w, http.StatusOK, hooks)
}

func (s *Server) handleGetWebhook(w http.ResponseWriter, r *http.Request) {
	hook, err := s.webhookSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to load webhook")
		return
	}
	writeJSON(w, http.StatusOK, hook)
}

// handleTestWebhook sends a test delivery. Delivery failures are reported
// in the 200 body; only a missing webhook is an HTTP error.
func (s *Server) handleTestWebhook(w http.ResponseWriter, r *http.Request) {
	res, err := s.webhookSvc.Test(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to test webhook")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSetWebhookActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hook, err := s.webhookSvc.SetActive(r.Context(), chi.URLParam(r, "id"), active, r.Header.Get(actorHeader))
		if err != nil {
			s.writeServiceError(w, err, "failed to update webhook")
			return
		}
		writeJSON(w, http.StatusOK, hook)
	}
}
