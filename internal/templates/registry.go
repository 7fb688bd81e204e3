package templates

import (
	"errors"
	"html"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
)

// placeholder matches {{name}} with optional surrounding whitespace. Any
// name without braces is accepted, so {{user.name}} and {{file-name}} are
// substituted like any other placeholder.
var placeholder = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Registry maps template ids to templates. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry returns a registry seeded with the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Template)}
	for _, t := range builtins() {
		r.templates[t.ID] = t
	}
	return r
}

// Get returns the template registered under id.
func (r *Registry) Get(id string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	return t, ok
}

// All returns a snapshot of the registry sorted by id.
func (r *Registry) All() []Template {
	r.mu.RLock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Register adds t or replaces the template with the same id.
func (r *Registry) Register(t Template) error {
	if t.ID == "" {
		return errors.New("template id is required")
	}
	if t.Type == "" {
		t.Type = TypeCustom
	}
	t.Channels = slices.Clone(t.Channels)
	t.Variables = slices.Clone(t.Variables)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

// RenderByType renders the template for a notification type. The template
// whose id equals typ wins; otherwise the lowest-id template of that type is
// used. It reports false when no template matches.
func (r *Registry) RenderByType(typ string, vars Variables) (Rendered, bool) {
	t, ok := r.ByType(typ)
	if !ok {
		return Rendered{}, false
	}
	return Render(t, vars), true
}

// ByType returns the template used for a notification type, following the
// same precedence as RenderByType.
func (r *Registry) ByType(typ string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.templates[typ]; ok && t.Type == typ {
		return t, true
	}
	var (
		found Template
		ok    bool
	)
	for _, t := range r.templates {
		if t.Type != typ {
			continue
		}
		if !ok || t.ID < found.ID {
			found, ok = t, true
		}
	}
	return found, ok
}

// Render substitutes placeholders in the subject, body and HTML body.
// Every substituted value is HTML-escaped, in the plain-text body as well,
// and placeholders without a value become empty strings. Substituted text is
// not scanned again.
func Render(t Template, vars Variables) Rendered {
	return Rendered{
		Subject:  interpolate(t.Subject, vars),
		Body:     interpolate(t.Body, vars),
		HTMLBody: interpolate(t.HTMLBody, vars),
	}
}

func interpolate(text string, vars Variables) string {
	if text == "" {
		return ""
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := strings.TrimSpace(placeholder.FindStringSubmatch(m)[1])
		v, ok := vars[name]
		if !ok {
			return ""
		}
		return html.EscapeString(v.String())
	})
}

// ValidateVariables returns the declared variables of t that are missing from
// vars, in declaration order.
func ValidateVariables(t Template, vars Variables) []string {
	missing := make([]string, 0)
	for _, name := range t.Variables {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
