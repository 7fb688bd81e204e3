// Package api implements the notifyd REST API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fileops/notifyd/internal/service"
)

const (
	errInvalidJSONBody = "invalid JSON body"
	maxBodyBytes       = 1 << 20
)

// Server holds all dependencies for the REST API handlers.
type Server struct {
	notificationSvc service.NotificationService
	webhookSvc      service.WebhookService
	templateSvc     service.TemplateService
	logger          *slog.Logger
}

// New creates a new API Server backed by the provided services.
func New(
	notificationSvc service.NotificationService,
	webhookSvc service.WebhookService,
	templateSvc service.TemplateService,
	logger *slog.Logger,
) *Server {
	return &Server{
		notificationSvc: notificationSvc,
		webhookSvc:      webhookSvc,
		templateSvc:     templateSvc,
		logger:          logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	// Notifications
	r.Post("/notifications", s.handlePublishNotification)
	r.Get("/notifications/{id}/deliveries", s.handleListDeliveries)
	r.Get("/notification-log", s.handleListNotificationLog)
	r.Get("/audit", s.handleListAudit)

	// Templates
	r.Get("/templates", s.handleListTemplates)
	r.Get("/templates/{id}", s.handleGetTemplate)
	r.Put("/templates/{id}", s.handlePutTemplate)
	r.Post("/templates/{id}/render", s.handleRenderTemplate)

	// Webhooks
	r.Get("/webhooks", s.handleListWebhooks)
	r.Get("/webhooks/{id}", s.handleGetWebhook)
	r.Post("/webhooks/{id}/test", s.handleTestWebhook)
	r.Post("/webhooks/{id}/activate", s.handleSetWebhookActive(true))
	r.Post("/webhooks/{id}/deactivate", s.handleSetWebhookActive(false))

	r.Get("/version", s.handleVersion)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return false
	}
	return true
}

// writeServiceError maps typed service errors to HTTP status codes. Other
// errors are logged and reported as 500 with fallback as the message.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var (
		nfe *service.NotFoundError
		ve  *service.ValidationError
		ue  *service.UnavailableError
	)
	switch {
	case errors.As(err, &nfe):
		writeError(w, http.StatusNotFound, nfe.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &ue):
		writeError(w, http.StatusServiceUnavailable, ue.Error())
	default:
		s.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// queryLimit reads ?limit=N, returning 0 when absent or invalid.
func queryLimit(r *http.Request) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
