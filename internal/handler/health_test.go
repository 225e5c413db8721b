package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := &Handler{tracer: noop.NewTracerProvider().Tracer("test")}
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, map[string]any{"status": "healthy", "digests": false, "probe_history": false}, body)
}

type storelessDigests struct{ stubDigests }

func (storelessDigests) HasStore() bool { return false }

func TestHealthReportsDigestStore(t *testing.T) {
	r := newTestRouter(t, Deps{Digests: storelessDigests{}}, "")
	w := do(r, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy","digests":false,"probe_history":false}`, w.Body.String())

	r = newTestRouter(t, Deps{Digests: stubDigests{}, History: &stubHistory{}}, "")
	require.JSONEq(t, `{"status":"healthy","digests":true,"probe_history":true}`, do(r, "/health", nil).Body.String())
}
