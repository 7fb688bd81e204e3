package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fileops/notifyd/internal/notification"
)

// handlePublishNotification accepts a notification and queues it for
// delivery. Responds 202 with the stored notification.
func (s *Server) handlePublishNotification(w http.ResponseWriter, r *http.Request) {
	var n notification.Notification
	if !decodeJSON(w, r, &n) {
		return
	}

	published, err := s.notificationSvc.Publish(r.Context(), &n)
	if err != nil {
		s.writeServiceError(w, err, "failed to publish notification")
		return
	}
	writeJSON(w, http.StatusAccepted, published)
}

// handleListDeliveries returns the delivery records of a notification.
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := s.notificationSvc.ListDeliveries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to list deliveries")
		return
	}
	writeJSON(w, http.StatusOK, deliveries)
}

// handleListNotificationLog returns recent channel log entries.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListNotificationLog(w http.ResponseWriter, r *http.Request) {
	entries, err := s.notificationSvc.ListLog(r.Context(), queryLimit(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to list notification log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleListAudit returns recent audit entries, newest first.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := s.notificationSvc.ListAudit(r.Context(), queryLimit(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to list audit log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
