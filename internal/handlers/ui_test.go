package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultToken = "ghp_default_credential"
	overviewLink = "http://localhost:8501/overview?username=octocat"
)

func TestUIHandler_IndexRendersForm(t *testing.T) {
	env := newTestEnv(t, defaultToken)

	resp, err := env.client.Get(env.server.URL + "/")
	require.NoError(t, err)
	status, body := readBody(t, resp)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Cookies(), "a session cookie is issued on first visit")

	assert.Contains(t, body, "<title>CommitQuest - Monitor your GitHub Stats</title>")
	assert.Contains(t, body, "<h1>GitHub Stats</h1>")
	assert.Contains(t, body, "I have a GitHub Access Token")
	assert.Contains(t, body, `value="analyze"`)
	assert.Contains(t, body, "Enter Username")
	assert.Contains(t, body, "This app tracks GitHub contributions")

	assert.NotContains(t, body, `type="password"`, "token field is hidden until the toggle is on")
	assert.NotContains(t, body, "/overview", "navigation is hidden before Analyze")
	assert.NotContains(t, body, "Analysis is waiting for")
	assert.NotContains(t, body, defaultToken)
}

func TestUIHandler_AnalyzeWithDefaultTokenOpensGate(t *testing.T) {
	env := newTestEnv(t, defaultToken)

	status, body := env.postForm(t, "/", url.Values{
		"username": {"octocat"},
		"action":   {"analyze"},
	})

	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `value="octocat"`)
	assert.Contains(t, body, overviewLink)
	assert.Contains(t, body, "http://localhost:8501/predictions?username=octocat")
	assert.NotContains(t, body, defaultToken)
	assert.NotContains(t, body, "Analysis is waiting for")

	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.GateOutcomes.WithLabelValues("open")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.FormSubmissions.WithLabelValues("html", "analyze", "default")), 0)
}

func TestUIHandler_LatchSurvivesLaterEdits(t *testing.T) {
	env := newTestEnv(t, defaultToken)

	_, body := env.postForm(t, "/", url.Values{"action": {"analyze"}})
	assert.Contains(t, body, "Analysis is waiting for")
	assert.Contains(t, body, "Enter a GitHub username to analyze")
	assert.NotContains(t, body, "/overview")
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.GateOutcomes.WithLabelValues("closed")), 0)

	_, body = env.postForm(t, "/", url.Values{
		"username": {"octocat"},
		"action":   {"update"},
	})
	assert.Contains(t, body, overviewLink, "the earlier press stays latched")
	assert.NotContains(t, body, "Analysis is waiting for")
}

func TestUIHandler_NoDefaultTokenNeedsUserToken(t *testing.T) {
	env := newTestEnv(t, "")

	_, body := env.postForm(t, "/", url.Values{
		"username": {"octocat"},
		"action":   {"analyze"},
	})
	assert.Contains(t, body, "provide your own GitHub access token")
	assert.NotContains(t, body, "/overview")

	_, body = env.postForm(t, "/", url.Values{
		"username":      {"octocat"},
		"token_present": {"on"},
		"user_token":    {"ghp_user"},
		"action":        {"update"},
	})
	assert.Contains(t, body, overviewLink)
}

func TestUIHandler_TokenToggle(t *testing.T) {
	env := newTestEnv(t, defaultToken)

	_, body := env.postForm(t, "/", url.Values{
		"username":      {"octocat"},
		"token_present": {"on"},
		"user_token":    {"ghp_user"},
		"action":        {"update"},
	})
	assert.Contains(t, body, `type="password"`)
	assert.Contains(t, body, `value="ghp_user"`, "the stored token seeds the masked field")
	assert.Contains(t, body, "checked")

	_, body = env.postForm(t, "/", url.Values{
		"username": {"octocat"},
		"action":   {"update"},
	})
	assert.NotContains(t, body, `type="password"`)
	assert.NotContains(t, body, "ghp_user", "turning the toggle off drops the token")

	_, body = env.postForm(t, "/", url.Values{
		"username":      {"octocat"},
		"token_present": {"on"},
		"action":        {"update"},
	})
	assert.Contains(t, body, `type="password"`)
	assert.NotContains(t, body, "ghp_user")
}

func TestUIHandler_Reset(t *testing.T) {
	env := newTestEnv(t, defaultToken)

	_, body := env.postForm(t, "/", url.Values{
		"username": {"octocat"},
		"action":   {"analyze"},
	})
	require.Contains(t, body, overviewLink)
	assert.Contains(t, body, `action="/reset"`)

	status, body := env.postForm(t, "/reset", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "/overview")
	assert.NotContains(t, body, `value="octocat"`)
	assert.NotContains(t, body, `action="/reset"`)
}

func TestUIHandler_SessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, defaultToken)

	env.postForm(t, "/", url.Values{
		"username": {"octocat"},
		"action":   {"analyze"},
	})

	other := &http.Client{}
	resp, err := other.Get(env.server.URL + "/")
	require.NoError(t, err)
	_, body := readBody(t, resp)

	assert.NotContains(t, body, "octocat")
	assert.NotContains(t, body, "/overview")
}

func TestUIHandler_StoreFailure(t *testing.T) {
	env := newTestEnvWithStore(t, defaultToken, brokenStore{})

	status, body := env.get(t, "/")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "server_error")
	assert.NotContains(t, body, "connection refused")

	status, _ = env.postForm(t, "/", url.Values{"username": {"octocat"}})
	assert.Equal(t, http.StatusInternalServerError, status)

	assert.Positive(t, testutil.ToFloat64(env.metrics.StoreOperations.WithLabelValues("store", "error")))
}
