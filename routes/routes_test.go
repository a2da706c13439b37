package routes

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dunderai/auditcore/app"
	"github.com/dunderai/auditcore/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T, mutate func(cfg *config.Config)) http.Handler {
	t.Helper()

	source := filepath.Join(t.TempDir(), "expenses.csv")
	csv := "employee,date,amount,vendor\nJim,2024-01-15,120.50,Office Depot\n"
	require.NoError(t, os.WriteFile(source, []byte(csv), 0o600))

	cfg := &config.Config{
		Environment: "test",
		Dataset: config.DatasetConfig{
			DefaultSource: source,
			FetchTimeout:  5 * time.Second,
			CacheCapacity: 1,
		},
		Detector:     config.DetectorConfig{ApprovalLimit: 500},
		Evaluator:    config.EvaluatorConfig{MaxResultLength: 5000},
		Orchestrator: config.OrchestratorConfig{StepTimeout: 5 * time.Second},
	}
	if mutate != nil {
		mutate(cfg)
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return SetupRoutes(deps)
}

func TestSetupRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	t.Run("health endpoints are public", func(t *testing.T) {
		for _, path := range []string{"/healthz", "/readyz"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code, path)
		}
	})

	t.Run("audit endpoint runs a workflow", func(t *testing.T) {
		body := bytes.NewReader([]byte(`{"request":"Is a cash purchase of office supplies allowed?"}`))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", body)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "workflow")
	})

	t.Run("message log reflects broker traffic", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "COMPLIANCE_CHECK")
	})

	t.Run("verdict archive disabled without database", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/verdicts", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("unknown route returns JSON 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"endpoint not found"}`, rec.Body.String())
	})

	t.Run("responses carry a request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestSetupRoutes_AuthEnabled(t *testing.T) {
	router := newTestRouter(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.JWTSecret = "scranton-branch-secret"
	})

	t.Run("API routes reject missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("health endpoints stay public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
