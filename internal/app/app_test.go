package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/auth"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePlatform struct {
	checks atomic.Int32
}

func (f *fakePlatform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"expires_in":    3600,
			"user":          map[string]interface{}{"id": "user-1", "email": "ana@example.com"},
		})
	case r.URL.Path == "/auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/functions/v1/check-subscription":
		f.checks.Add(1)
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"subscribed":true,"subscription_tier":"Premium"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func testConfig(url string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: "0", Environment: "test"},
		Platform: config.PlatformConfig{URL: url, AnonKey: "anon", Timeout: 5 * time.Second},
		Session:  config.SessionConfig{Backend: "memory", Key: "current"},
		Billing:  config.BillingConfig{ReturnParam: "checkout", ReturnValue: "success", NoiseRetryDelay: time.Second},
	}
}

func call(t *testing.T, r http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestApp_StartsAnonymousWithEmptyStore(t *testing.T) {
	srv := httptest.NewServer(&fakePlatform{})
	defer srv.Close()

	a, err := New(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Start(context.Background()))

	assert.Equal(t, auth.StatusAnonymous, a.Manager.Snapshot().Status)

	r := a.Router()
	code, body := call(t, r, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "anonymous", body["data"].(map[string]interface{})["status"])

	code, _ = call(t, r, http.MethodGet, "/billing/subscription", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = call(t, r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
}

func TestApp_SignInRefreshesSubscriptionOnce(t *testing.T) {
	fp := &fakePlatform{}
	srv := httptest.NewServer(fp)
	defer srv.Close()

	a, err := New(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Start(context.Background()))
	r := a.Router()

	code, body := call(t, r, http.MethodPost, "/auth/signin", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, code, body)

	require.Eventually(t, func() bool { return a.Tracker.Data().Subscribed }, 2*time.Second, 10*time.Millisecond)
	a.Manager.Wait()
	assert.Equal(t, int32(1), fp.checks.Load())

	code, body = call(t, r, http.MethodGet, "/billing/subscription", "")
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["subscribed"])
	assert.Equal(t, "Premium", data["subscription_tier"])

	code, _ = call(t, r, http.MethodPost, "/auth/signout", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, auth.StatusAnonymous, a.Manager.Snapshot().Status)
	assert.False(t, a.Tracker.Data().Subscribed)
}

func TestApp_RedisBackendPersistsSession(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := httptest.NewServer(&fakePlatform{})
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Session.Backend = "redis"
	cfg.Session.TTL = time.Hour
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: mr.Port(), Prefix: "companion:session:"}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Start(context.Background()))

	require.NoError(t, a.Manager.SignIn(context.Background(), "ana@example.com", "secret"))
	a.Manager.Wait()

	stored, err := mr.Get("companion:session:current")
	require.NoError(t, err)
	assert.Contains(t, stored, "access-1")

	code, body := call(t, a.Router(), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["deps"].(map[string]interface{})["redis"])
}

func TestApp_RedisBackendFailsWhenUnreachable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Session.Backend = "redis"
	cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: "1"}

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis session store")
}
