package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maildesk-io/maildesk/internal/auth"
	"github.com/maildesk-io/maildesk/internal/config"
	"github.com/maildesk-io/maildesk/internal/ingest"
	"github.com/maildesk-io/maildesk/internal/repository"
	"github.com/maildesk-io/maildesk/internal/secrets"
)

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sdb := sqlx.NewDb(db, "postgres")

	box, err := secrets.NewBox("test-key")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Sync.SchedulerSecret = "s3cret"
	cfg.Auth.JWTSecret = "jwt-secret"

	accounts := repository.NewMailAccountRepository(sdb, box)
	syncService := ingest.NewService(accounts, nil, nil, cfg.Provider, cfg.Sync)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, time.Hour)

	return NewRouter(cfg, sdb, syncService, jwtManager), mock
}

func TestHealthz(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectPing()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealthzUnhealthy(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectPing().WillReturnError(assert.AnError)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSyncRunRequiresSecret(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync/run", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSyncRunEmpty(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(`FROM mail_accounts WHERE is_active`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/run", nil)
	req.Header.Set("X-Scheduler-Secret", "s3cret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"accounts":0`)
}

func TestSyncNowRequiresJWT(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync/now", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsExposed(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
