package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/client"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestBaseClient_Do_GET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer admin-key", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	bc := client.NewBaseClient(server.URL, "admin-key", 10*time.Second, quietLogger())

	resp, err := bc.Do(context.Background(), http.MethodGet, "/test", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBaseClient_Do_POST(t *testing.T) {
	type testRequest struct {
		Name string `json:"name"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req testRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "test", req.Name)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "created"})
	}))
	defer server.Close()

	bc := client.NewBaseClient(server.URL, "", 10*time.Second, quietLogger())

	resp, err := bc.Do(context.Background(), http.MethodPost, "/create", testRequest{Name: "test"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestBaseClient_NoAuthorizationWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	bc := client.NewBaseClient(server.URL, "", 10*time.Second, quietLogger())

	err := bc.DoJSON(context.Background(), http.MethodGet, "/", nil, http.StatusNoContent, nil)
	assert.NoError(t, err)
}

func TestBaseClient_BaseURL(t *testing.T) {
	expectedURL := "http://example.com/admin"
	bc := client.NewBaseClient(expectedURL, "", 10*time.Second, quietLogger())

	assert.Equal(t, expectedURL, bc.BaseURL())
}

func TestBaseClient_ParseErrorResponse(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantAPIErr  bool
		wantCode    string
		wantMessage string
	}{
		{
			name:        "service_error_format",
			status:      http.StatusUnauthorized,
			body:        `{"error":"unauthorized","error_description":"Invalid admin key"}`,
			wantAPIErr:  true,
			wantCode:    "unauthorized",
			wantMessage: "HTTP 401: unauthorized: Invalid admin key",
		},
		{
			name:        "unparseable_body",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantMessage: "HTTP 502: failed to parse error response",
		},
		{
			name:        "json_without_code",
			status:      http.StatusInternalServerError,
			body:        `{"message":"boom"}`,
			wantMessage: "HTTP 500: failed to parse error response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			bc := client.NewBaseClient(server.URL, "", 10*time.Second, quietLogger())

			resp, err := bc.Do(context.Background(), http.MethodGet, "/test", nil)
			require.NoError(t, err)

			err = bc.ParseErrorResponse(resp)
			require.Error(t, err)
			assert.Equal(t, tt.wantMessage, err.Error())

			var apiErr *models.APIError
			assert.Equal(t, tt.wantAPIErr, errors.As(err, &apiErr))
			if tt.wantAPIErr {
				assert.Equal(t, tt.wantCode, apiErr.Code)
				assert.Equal(t, tt.status, apiErr.StatusCode)
			}
		})
	}
}

func TestBaseClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	bc := client.NewBaseClient(server.URL, "", 10*time.Second, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bc.Do(ctx, http.MethodGet, "/test", nil)
	assert.Error(t, err)
}
