package telemetry_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileops/notifyd/internal/telemetry"
)

func scrape(t *testing.T, m *telemetry.Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_RecordDelivery(t *testing.T) {
	m, err := telemetry.NewMetrics()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	m.RecordDelivery(context.Background(), "webhook.deliver", true, 120*time.Millisecond)
	m.RecordDelivery(context.Background(), "webhook.test", false, 5*time.Millisecond)
	m.SetStalePending(3)

	out := scrape(t, m)
	assert.Contains(t, out, "notifyd_webhook_attempts")
	assert.Contains(t, out, `operation="webhook.deliver"`)
	assert.Contains(t, out, `operation="webhook.test"`)
	assert.Contains(t, out, "notifyd_webhook_attempt_duration")
	assert.Contains(t, out, "notifyd_deliveries_stale_pending")
	assert.Contains(t, out, "go_goroutines")
}

func TestSetupTracing_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := telemetry.SetupTracing(context.Background(), "", "notifyd", "dev")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
