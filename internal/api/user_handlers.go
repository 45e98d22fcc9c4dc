package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cartboardapp/cartboard-server/internal/color"
	domainerrors "github.com/cartboardapp/cartboard-server/internal/errors"
	"github.com/cartboardapp/cartboard-server/internal/store"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/sessions",
		Summary:     "List sessions",
		Description: "Returns the authenticated user's active sessions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokeSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/me/sessions/{sessionID}",
		Summary:     "Revoke session",
		Description: "Revokes one of the authenticated user's sessions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRevokeSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokeAllSessions",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/me/sessions",
		Summary:     "Revoke all sessions",
		Description: "Revokes every session belonging to the authenticated user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRevokeAllSessions)
}

// === DTOs ===

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// SessionResponse contains session metadata without token material.
type SessionResponse struct {
	ID            string    `json:"id" doc:"Session ID"`
	DeviceType    string    `json:"device_type,omitempty" doc:"Device type"`
	Platform      string    `json:"platform,omitempty" doc:"Platform"`
	ClientName    string    `json:"client_name,omitempty" doc:"Client name"`
	ClientVersion string    `json:"client_version,omitempty" doc:"Client version"`
	DeviceName    string    `json:"device_name,omitempty" doc:"Device name"`
	DeviceModel   string    `json:"device_model,omitempty" doc:"Device model"`
	IPAddress     string    `json:"ip_address,omitempty" doc:"Last known IP address"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation timestamp"`
	LastSeenAt    time.Time `json:"last_seen_at" doc:"Last activity timestamp"`
	ExpiresAt     time.Time `json:"expires_at" doc:"Expiry timestamp"`
}

// SessionsOutput wraps the session list for Huma.
type SessionsOutput struct {
	Body struct {
		Sessions []SessionResponse `json:"sessions" doc:"Active sessions"`
	}
}

// RevokeSessionInput identifies the session to revoke.
type RevokeSessionInput struct {
	SessionID string `path:"sessionID" maxLength:"100" doc:"Session ID"`
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	return &UserOutput{
		Body: UserResponse{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Role:        string(user.Role),
			IsRoot:      user.IsRoot,
			CreatedAt:   user.CreatedAt,
			UpdatedAt:   user.UpdatedAt,
			LastLoginAt: user.LastLoginAt,
			AvatarColor: color.ForUser(user.ID),
		},
	}, nil
}

func (s *Server) handleListSessions(ctx context.Context, _ *struct{}) (*SessionsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.services.Session.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]SessionResponse, len(sessions))
	for i, session := range sessions {
		resp[i] = SessionResponse{
			ID:            session.ID,
			DeviceType:    session.DeviceType,
			Platform:      session.Platform,
			ClientName:    session.ClientName,
			ClientVersion: session.ClientVersion,
			DeviceName:    session.DeviceName,
			DeviceModel:   session.DeviceModel,
			IPAddress:     session.IPAddress,
			CreatedAt:     session.CreatedAt,
			LastSeenAt:    session.LastSeenAt,
			ExpiresAt:     session.ExpiresAt,
		}
	}

	out := &SessionsOutput{}
	out.Body.Sessions = resp
	return out, nil
}

func (s *Server) handleRevokeSession(ctx context.Context, input *RevokeSessionInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	// Only the session's owner may revoke it.
	session, err := s.store.GetSession(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, domainerrors.NotFound("session not found")
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, domainerrors.Forbidden("cannot revoke another user's session")
	}

	if err := s.services.Session.DeleteSession(ctx, input.SessionID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Session revoked"}}, nil
}

func (s *Server) handleRevokeAllSessions(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Session.DeleteAllUserSessions(ctx, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "All sessions revoked"}}, nil
}
