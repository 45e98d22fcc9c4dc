package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cartboardapp/cartboard-server/internal/domain"
	domainerrors "github.com/cartboardapp/cartboard-server/internal/errors"
)

func (s *Server) registerActivityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getActivityFeed",
		Method:      http.MethodGet,
		Path:        "/api/v1/activities",
		Summary:     "Get activity feed",
		Description: "Returns the global activity feed, newest first, with cursor pagination",
		Tags:        []string{"Activities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetActivityFeed)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyActivities",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/activities",
		Summary:     "Get own activities",
		Description: "Returns the authenticated user's recent activities",
		Tags:        []string{"Activities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyActivities)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCartActivities",
		Method:      http.MethodGet,
		Path:        "/api/v1/carts/{cartID}/activities",
		Summary:     "Get cart activities",
		Description: "Returns recent activities for one cart. Members only.",
		Tags:        []string{"Activities"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCartActivities)
}

// === DTOs ===

// GetActivityFeedInput contains pagination parameters for the feed.
type GetActivityFeedInput struct {
	Limit    int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Items per page"`
	Before   string `query:"before" doc:"Return activities created before this RFC3339 timestamp"`
	BeforeID string `query:"before_id" maxLength:"100" doc:"Tie-break cursor, the ID of the last activity on the previous page"`
}

// FeedLimitInput contains the limit parameter for scoped feeds.
type FeedLimitInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Items per page"`
}

// CartActivitiesInput identifies the cart and page size.
type CartActivitiesInput struct {
	CartID string `path:"cartID" maxLength:"100" doc:"Cart ID"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Items per page"`
}

// ActivityResponse contains one activity feed entry.
type ActivityResponse struct {
	ID              string    `json:"id" doc:"Activity ID"`
	Type            string    `json:"type" doc:"Activity type"`
	UserID          string    `json:"user_id" doc:"Acting user ID"`
	UserDisplayName string    `json:"user_display_name" doc:"Acting user display name"`
	CartID          string    `json:"cart_id,omitempty" doc:"Cart ID for cart activities"`
	CartName        string    `json:"cart_name,omitempty" doc:"Cart name for cart activities"`
	ItemName        string    `json:"item_name,omitempty" doc:"Item name for item activities"`
	TodoID          string    `json:"todo_id,omitempty" doc:"Todo ID for todo activities"`
	TodoTitle       string    `json:"todo_title,omitempty" doc:"Todo title for todo activities"`
	CreatedAt       time.Time `json:"created_at" doc:"Creation timestamp"`
}

// ActivitiesOutput wraps an activity list for Huma.
type ActivitiesOutput struct {
	Body struct {
		Activities []ActivityResponse `json:"activities" doc:"Activities, newest first"`
	}
}

// === Handlers ===

func (s *Server) handleGetActivityFeed(ctx context.Context, input *GetActivityFeedInput) (*ActivitiesOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	var before *time.Time
	if input.Before != "" {
		t, err := time.Parse(time.RFC3339, input.Before)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid before format, expected RFC3339")
		}
		before = &t
	}

	activities, err := s.services.Activity.GetFeed(ctx, input.Limit, before, input.BeforeID)
	if err != nil {
		return nil, err
	}

	return mapActivitiesOutput(activities), nil
}

func (s *Server) handleGetMyActivities(ctx context.Context, input *FeedLimitInput) (*ActivitiesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	activities, err := s.services.Activity.GetUserFeed(ctx, userID, input.Limit)
	if err != nil {
		return nil, err
	}

	return mapActivitiesOutput(activities), nil
}

func (s *Server) handleGetCartActivities(ctx context.Context, input *CartActivitiesInput) (*ActivitiesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if !s.services.Cart.IsMember(ctx, userID, input.CartID) {
		return nil, domainerrors.Forbidden("not a member of this cart")
	}

	activities, err := s.services.Activity.GetCartFeed(ctx, input.CartID, input.Limit)
	if err != nil {
		return nil, err
	}

	return mapActivitiesOutput(activities), nil
}

// === Helpers ===

func mapActivitiesOutput(activities []*domain.Activity) *ActivitiesOutput {
	resp := make([]ActivityResponse, len(activities))
	for i, activity := range activities {
		resp[i] = ActivityResponse{
			ID:              activity.ID,
			Type:            string(activity.Type),
			UserID:          activity.UserID,
			UserDisplayName: activity.UserDisplayName,
			CartID:          activity.CartID,
			CartName:        activity.CartName,
			ItemName:        activity.ItemName,
			TodoID:          activity.TodoID,
			TodoTitle:       activity.TodoTitle,
			CreatedAt:       activity.CreatedAt,
		}
	}

	out := &ActivitiesOutput{}
	out.Body.Activities = resp
	return out
}
