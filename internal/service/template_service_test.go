package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileops/notifyd/internal/service"
	"github.com/fileops/notifyd/internal/templates"
)

func TestTemplateService_GetNotFound(t *testing.T) {
	svc := service.NewTemplateService(templates.NewRegistry())

	_, err := svc.Get("nope")
	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestTemplateService_RegisterUsesPathID(t *testing.T) {
	svc := service.NewTemplateService(templates.NewRegistry())

	got, err := svc.Register("welcome", templates.Template{ID: "ignored", Subject: "Hi {{name}}"})
	require.NoError(t, err)
	assert.Equal(t, "welcome", got.ID)
	assert.Equal(t, templates.TypeCustom, got.Type)
	assert.Len(t, svc.List(), 6)

	_, err = svc.Get("ignored")
	assert.Error(t, err)
}

func TestTemplateService_RegisterRejectsEmptyContent(t *testing.T) {
	svc := service.NewTemplateService(templates.NewRegistry())

	_, err := svc.Register("empty", templates.Template{Name: "nothing"})
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestTemplateService_RenderReportsMissing(t *testing.T) {
	svc := service.NewTemplateService(templates.NewRegistry())

	res, err := svc.Render("file_uploaded", templates.Variables{"fileName": templates.String("a<b>.txt")})
	require.NoError(t, err)
	assert.Equal(t, "File uploaded: a&lt;b&gt;.txt", res.Subject)
	assert.Equal(t, []string{"userName", "fileSize"}, res.Missing)

	_, err = svc.Render("nope", nil)
	assert.Error(t, err)
}
