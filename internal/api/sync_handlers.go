package api

import (
	"net/http"
	"strings"

	"github.com/cartboardapp/cartboard-server/internal/http/response"
)

func (s *Server) registerSyncRoutes() {
	// NOTE: SSE endpoint registered directly on chi (not Huma) because Huma doesn't support SSE.
	// Route: GET /api/v1/sync/events - Server-Sent Events for real-time change notifications
	s.router.Get("/api/v1/sync/events", s.handleSSEStream)
}

// handleSSEStream authenticates the request and hands the connection to
// the SSE handler. EventSource cannot set headers, so browser clients
// pass the access token as a query parameter instead.
func (s *Server) handleSSEStream(w http.ResponseWriter, r *http.Request) {
	token := ""
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token = authHeader[7:]
	} else {
		token = r.URL.Query().Get("token")
	}

	if token == "" {
		response.Unauthorized(w, "Missing access token", s.logger)
		return
	}

	user, _, err := s.services.Auth.VerifyAccessToken(r.Context(), token)
	if err != nil {
		response.Unauthorized(w, "Invalid or expired token", s.logger)
		return
	}

	s.sseHandler.Stream(w, r, user.ID, user.IsAdmin())
}
