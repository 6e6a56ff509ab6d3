package handlers_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/handlers"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/middleware"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/redis"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/session"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/token"
)

const testSessionSecret = "handlers-test-secret-that-is-long-enough-1234567" // pragma: allowlist secret

// brokenStore fails every call, as an unreachable Redis would.
type brokenStore struct {
	redis.Store
}

var errStoreDown = errors.New("dial tcp: connection refused")

func (brokenStore) Ping(context.Context) error { return errStoreDown }

func (brokenStore) GetSession(context.Context, string) (*models.SessionState, error) {
	return nil, errStoreDown
}

func (brokenStore) StoreSession(context.Context, *models.SessionState, time.Duration) error {
	return errStoreDown
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig(defaultToken string) *config.Config {
	return &config.Config{
		Environment: config.EnvironmentConfig{Environment: config.Local},
		Session: config.SessionConfig{
			Secret:     testSessionSecret,
			CookieName: "cq_session",
			TTL:        time.Hour,
			Issuer:     "commitquest-ui",
		},
		GitHub:   config.GitHubConfig{DefaultToken: defaultToken},
		Security: config.SecurityConfig{SameSiteCookies: "lax"},
		UI:       config.DefaultUIConfig(),
	}
}

// testEnv is a full router behind the real cookie middleware.
type testEnv struct {
	server  *httptest.Server
	client  *http.Client
	store   redis.Store
	metrics *handlers.Metrics
}

func newTestEnv(t *testing.T, defaultToken string) *testEnv {
	t.Helper()

	log := quietLogger()
	memory := redis.NewMemoryStore(log)
	t.Cleanup(func() { _ = memory.Close() })

	return newTestEnvWithStore(t, defaultToken, memory)
}

func newTestEnvWithStore(t *testing.T, defaultToken string, base redis.Store) *testEnv {
	t.Helper()

	log := quietLogger()
	cfg := testConfig(defaultToken)
	metrics := handlers.NewMetrics(prometheus.NewRegistry())
	store := handlers.InstrumentStore(base, metrics)

	sessions := session.NewService(store, session.NewResolver(cfg.GitHub.DefaultToken), nil, cfg.Session.TTL, log)
	cookies := middleware.NewSessionCookies(cfg, token.NewCookieService(&cfg.Session), log)

	router := mux.NewRouter()
	router.Use(metrics.Instrument)
	handlers.NewUIHandler(sessions, cookies, cfg, metrics, log).RegisterRoutes(router)
	api := router.PathPrefix("/api/v1").Subrouter()
	handlers.NewSessionHandler(sessions, cookies, cfg, metrics, log).RegisterRoutes(api)
	handlers.NewStatsHandler(log).RegisterRoutes(api)

	server := httptest.NewServer(cookies.Middleware(router))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server:  server,
		client:  &http.Client{Jar: jar, Timeout: 5 * time.Second},
		store:   store,
		metrics: metrics,
	}
}

func (e *testEnv) get(t *testing.T, path string) (int, string) {
	t.Helper()

	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return readBody(t, resp)
}

// postForm submits the input form; the client follows the 303 back to GET /.
func (e *testEnv) postForm(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()

	resp, err := e.client.PostForm(e.server.URL+path, form)
	require.NoError(t, err)
	return readBody(t, resp)
}

func (e *testEnv) doJSON(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	_, text := readBody(t, resp)
	return resp, text
}

func readBody(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}
