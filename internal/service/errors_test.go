package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fileops/notifyd/internal/service"
)

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *service.NotFoundError
		expected string
	}{
		{"webhook", &service.NotFoundError{Resource: "webhook", ID: "wh-1"}, `webhook "wh-1" not found`},
		{"template", &service.NotFoundError{Resource: "template", ID: "file_shared"}, `template "file_shared" not found`},
		{"empty ID", &service.NotFoundError{Resource: "webhook", ID: ""}, `webhook "" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *service.ValidationError
		expected string
	}{
		{"with field", &service.ValidationError{Field: "channels", Message: `unknown channel "sms"`},
			`validation error for "channels": unknown channel "sms"`},
		{"without field", &service.ValidationError{Message: "invalid request body"}, "invalid request body"},
		{"both empty", &service.ValidationError{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUnavailableError_Error(t *testing.T) {
	var err error = &service.UnavailableError{Message: "delivery queue is unavailable, retry later"}
	assert.EqualError(t, err, "delivery queue is unavailable, retry later")
}
