package api

import (
	"bytes"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartboardapp/cartboard-server/internal/auth"
	"github.com/cartboardapp/cartboard-server/internal/service"
	"github.com/cartboardapp/cartboard-server/internal/sse"
	"github.com/cartboardapp/cartboard-server/internal/store"
	"github.com/cartboardapp/cartboard-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// setupTestServer creates a test server with all dependencies.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.New(filepath.Join(tmpDir, "tree.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	activityStore, err := sqlite.Open(filepath.Join(tmpDir, "activities.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = activityStore.Close() })

	sseManager := sse.NewManager(logger)
	sseHandler := sse.NewHandler(sseManager, logger)

	// Use a test key (32 bytes as hex = 64 hex chars)
	testKeyHex := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	tokenService, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	activityService := service.NewActivityService(activityStore, logger)
	sessionService := service.NewSessionService(s, tokenService, sseManager, logger)
	authService := service.NewAuthService(s, tokenService, sessionService, sseManager, logger)
	cartService := service.NewCartService(s, activityService, sseManager, logger)
	todoService := service.NewTodoService(s, activityService, sseManager, logger)

	sseManager.SetCartAccessChecker(cartService.IsMember)

	services := &Services{
		Auth:     authService,
		Session:  sessionService,
		Cart:     cartService,
		Todo:     todoService,
		Activity: activityService,
	}

	return NewServer(s, services, sseHandler, sseManager, logger)
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, server *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = http.NoBody
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// decodeEnvelope unmarshals a response body into a typed envelope.
func decodeEnvelope[T any](t *testing.T, w *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()

	var envelope testEnvelope[T]
	err := json.Unmarshal(w.Body.Bytes(), &envelope)
	require.NoError(t, err)
	return envelope
}

// registerTestUser registers a user and returns the auth response.
func registerTestUser(t *testing.T, server *Server, email, displayName string) AuthResponse {
	t.Helper()

	w := doJSON(t, server, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":        email,
		"password":     "SecurePassword123!",
		"display_name": displayName,
	})
	require.Equal(t, http.StatusOK, w.Code, "register failed: %s", w.Body.String())

	return decodeEnvelope[AuthResponse](t, w).Data
}

func TestHealthCheck(t *testing.T) {
	server := setupTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope[HealthResponse](t, w)
	assert.True(t, envelope.Success)
	assert.Equal(t, "healthy", envelope.Data.Status)
	assert.Contains(t, envelope.Data.Components, "database")
	assert.Contains(t, envelope.Data.Components, "activities")
	assert.Contains(t, envelope.Data.Components, "sse")
}

func TestServer_UnknownRoute(t *testing.T) {
	server := setupTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/nonexistent", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"get current user", http.MethodGet, "/api/v1/users/me"},
		{"list carts", http.MethodGet, "/api/v1/carts"},
		{"list todos", http.MethodGet, "/api/v1/todos"},
		{"activity feed", http.MethodGet, "/api/v1/activities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, server, tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestSSEStream_RequiresToken(t *testing.T) {
	server := setupTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/sync/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/v1/sync/events?token=garbage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
