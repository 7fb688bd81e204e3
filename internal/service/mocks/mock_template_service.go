package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/fileops/notifyd/internal/service"
	"github.com/fileops/notifyd/internal/templates"
)

// MockTemplateService is a mock implementation of service.TemplateService.
type MockTemplateService struct {
	mock.Mock
}

//nolint:revive
func (m *MockTemplateService) List() []templates.Template {
	args := m.Called()
	return args.Get(0).([]templates.Template)
}

//nolint:revive
func (m *MockTemplateService) Get(id string) (templates.Template, error) {
	args := m.Called(id)
	return args.Get(0).(templates.Template), args.Error(1)
}

//nolint:revive
func (m *MockTemplateService) Register(id string, t templates.Template) (templates.Template, error) {
	args := m.Called(id, t)
	return args.Get(0).(templates.Template), args.Error(1)
}

//nolint:revive
func (m *MockTemplateService) Render(id string, vars templates.Variables) (*service.RenderResult, error) {
	args := m.Called(id, vars)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RenderResult), args.Error(1)
}
