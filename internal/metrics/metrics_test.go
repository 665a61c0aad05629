package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordImport(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(ImportsTotal.WithLabelValues("success"))
	teamsBefore := testutil.ToFloat64(ImportedTeamsTotal)

	RecordImport("success", 12, 3)

	assert.Equal(t, before+1, testutil.ToFloat64(ImportsTotal.WithLabelValues("success")))
	assert.Equal(t, teamsBefore+12, testutil.ToFloat64(ImportedTeamsTotal))
}

func TestRecordJobRun(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := SchedulerJobRunsTotal.WithLabelValues("snapshot", tt.outcome)
			before := testutil.ToFloat64(counter)
			RecordJobRun("snapshot", tt.err)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestLiveGauges(t *testing.T) {
	InitRegistry()

	UpdateLiveState(42, 18)
	assert.Equal(t, float64(42), testutil.ToFloat64(LiveSequence))
	assert.Equal(t, float64(18), testutil.ToFloat64(LiveRows))

	SetLiveConnected(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(LiveConnected))
	SetLiveConnected(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(LiveConnected))

	assert.NotPanics(t, func() {
		RecordLiveMessage("grid")
		RecordUnknownCommand()
		RecordReconnect()
		RecordStaleRelayResponse()
		RecordOnboardMessage()
		RecordStintStatsSource("laps")
		RecordImportStage("parse", 0.02)
		RecordCircuitBreakerTrip()
	})
}

func TestHandler(t *testing.T) {
	InitRegistry()
	RecordAPIRequest("/api/v1/races", http.MethodGet, http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "karting_api_requests_total")
}
