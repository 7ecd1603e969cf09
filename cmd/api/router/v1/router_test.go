package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectsync/internal/app"
	"projectsync/internal/config"
	"projectsync/internal/logging"
	auth "projectsync/internal/pkg/auth/application/domain"
)

func newEngine(t *testing.T) (*gin.Engine, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v := viper.New()
	v.Set("JWT_SECRET", "router-secret")
	v.Set("DB_DRIVER", config.DriverMemory)
	v.Set("REDIS_URL", "")
	v.Set("SMTP_HOST", "")
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)

	a, err := app.New(context.Background(), cfg, logging.Discard(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	r := gin.New()
	RegisterRoutes(r, a)
	return r, a
}

func bearer(t *testing.T, a *app.App, user string) string {
	t.Helper()
	token, err := a.Sessions.Issue(auth.Identity{ID: user, Name: user})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r, _ := newEngine(t)

	for _, path := range []string{"/api/v1/presence", "/api/v1/ws"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/meetings", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPresenceAndConversationRoutes(t *testing.T) {
	r, a := newEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence", nil)
	req.Header.Set("Authorization", bearer(t, a, "x"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var presence struct {
		Online []string `json:"online"`
		Count  int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presence))
	assert.Empty(t, presence.Online)
	assert.Zero(t, presence.Count)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/conversations", bytes.NewBufferString(`{"workspaceId":"w1","peerId":"y"}`))
	req.Header.Set("Authorization", bearer(t, a, "x"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSchedulingOutsideWorkspaceIsForbidden(t *testing.T) {
	r, a := newEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/meetings", bytes.NewBufferString(`{"workspaceId":"w1","title":"standup"}`))
	req.Header.Set("Authorization", bearer(t, a, "x"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthReportsBackendChecks(t *testing.T) {
	r, a := newEngine(t)
	RegisterHealthRoutes(r, a)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())

	// a canceled request context fails the cache check
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(ctx))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cache"`)
}
