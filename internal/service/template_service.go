package service

import (
	"github.com/fileops/notifyd/internal/templates"
)

// RenderResult is a rendered template plus the declared variables that were
// not supplied.
type RenderResult struct {
	templates.Rendered
	Missing []string `json:"missing"`
}

// TemplateService manages the template registry.
type TemplateService interface {
	List() []templates.Template
	Get(id string) (templates.Template, error)
	// Register adds or replaces a template. The id in the path wins over t.ID.
	Register(id string, t templates.Template) (templates.Template, error)
	// Render renders the template with vars.
	Render(id string, vars templates.Variables) (*RenderResult, error)
}

type templateServiceImpl struct {
	registry *templates.Registry
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(registry *templates.Registry) TemplateService {
	return &templateServiceImpl{registry: registry}
}

func (s *templateServiceImpl) List() []templates.Template {
	return s.registry.All()
}

func (s *templateServiceImpl) Get(id string) (templates.Template, error) {
	t, ok := s.registry.Get(id)
	if !ok {
		return templates.Template{}, &NotFoundError{Resource: "template", ID: id}
	}
	return t, nil
}

func (s *templateServiceImpl) Register(id string, t templates.Template) (templates.Template, error) {
	t.ID = id
	if t.Subject == "" && t.Body == "" && t.HTMLBody == "" {
		return templates.Template{}, &ValidationError{Message: "template needs a subject, body or htmlBody"}
	}
	if err := s.registry.Register(t); err != nil {
		return templates.Template{}, &ValidationError{Field: "id", Message: err.Error()}
	}
	stored, _ := s.registry.Get(id)
	return stored, nil
}

func (s *templateServiceImpl) Render(id string, vars templates.Variables) (*RenderResult, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if vars == nil {
		vars = templates.Variables{}
	}
	return &RenderResult{
		Rendered: templates.Render(t, vars),
		Missing:  templates.ValidateVariables(t, vars),
	}, nil
}
