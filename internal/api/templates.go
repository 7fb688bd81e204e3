package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fileops/notifyd/internal/templates"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.templateSvc.List())
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.templateSvc.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to load template")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handlePutTemplate registers or replaces the template at {id}.
func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	var t templates.Template
	if !decodeJSON(w, r, &t) {
		return
	}

	stored, err := s.templateSvc.Register(chi.URLParam(r, "id"), t)
	if err != nil {
		s.writeServiceError(w, err, "failed to register template")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleRenderTemplate renders {id} with the JSON object in the body, whose
// values must be strings, numbers or booleans.
func (s *Server) handleRenderTemplate(w http.ResponseWriter, r *http.Request) {
	var vars templates.Variables
	if r.ContentLength != 0 && !decodeJSON(w, r, &vars) {
		return
	}

	res, err := s.templateSvc.Render(chi.URLParam(r, "id"), vars)
	if err != nil {
		s.writeServiceError(w, err, "failed to render template")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
