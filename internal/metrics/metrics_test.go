package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", Outcome(nil))
	require.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(JobRuns.WithLabelValues("test-job", "ok"))
	JobRuns.WithLabelValues("test-job", "ok").Inc()
	require.InDelta(t, before+1, testutil.ToFloat64(JobRuns.WithLabelValues("test-job", "ok")), 1e-9)
}

func TestHandlerServesMetrics(t *testing.T) {
	Commands.WithLabelValues("ping").Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "rotchain_commands_total")
}
