package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cartboardapp/cartboard-server/internal/domain"
	"github.com/cartboardapp/cartboard-server/internal/id"
	"github.com/cartboardapp/cartboard-server/internal/store/sqlite"
)

// DefaultFeedLimit is the number of activities returned when no limit is given.
const DefaultFeedLimit = 50

// MaxFeedLimit caps the number of activities a single query can return.
const MaxFeedLimit = 200

// ActivityService records and serves the activity feed.
// Activities are best-effort: a failed write is logged but never fails
// the operation that produced it.
type ActivityService struct {
	activities *sqlite.Store
	logger     *slog.Logger
}

// NewActivityService creates a new activity feed service.
func NewActivityService(activities *sqlite.Store, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		activities: activities,
		logger:     logger,
	}
}

// record generates an ID, stamps the activity, and persists it.
func (s *ActivityService) record(ctx context.Context, activity *domain.Activity) {
	activityID, err := id.Generate("activity")
	if err != nil {
		s.warn("generate activity ID", err)
		return
	}
	activity.ID = activityID
	activity.CreatedAt = time.Now()

	if err := s.activities.CreateActivity(ctx, activity); err != nil {
		s.warn("record activity", err)
	}
}

func (s *ActivityService) warn(op string, err error) {
	if s.logger != nil {
		s.logger.Warn("Activity feed write failed", "op", op, "error", err)
	}
}

// RecordCartCreated records a cart_created activity.
func (s *ActivityService) RecordCartCreated(ctx context.Context, user *domain.User, cart *domain.Cart) {
	s.record(ctx, &domain.Activity{
		UserID:          user.ID,
		Type:            domain.ActivityCartCreated,
		UserDisplayName: user.Name(),
		CartID:          cart.ID,
		CartName:        cart.Name,
	})
}

// RecordCartJoined records a cart_joined activity.
func (s *ActivityService) RecordCartJoined(ctx context.Context, user *domain.User, cart *domain.Cart) {
	s.record(ctx, &domain.Activity{
		UserID:          user.ID,
		Type:            domain.ActivityCartJoined,
		UserDisplayName: user.Name(),
		CartID:          cart.ID,
		CartName:        cart.Name,
	})
}

// RecordCartLeft records a cart_left activity.
func (s *ActivityService) RecordCartLeft(ctx context.Context, user *domain.User, cartID, cartName string) {
	s.record(ctx, &domain.Activity{
		UserID:          user.ID,
		Type:            domain.ActivityCartLeft,
		UserDisplayName: user.Name(),
		CartID:          cartID,
		CartName:        cartName,
	})
}

// RecordCartDeleted records a cart_deleted activity.
func (s *ActivityService) RecordCartDeleted(ctx context.Context, user *domain.User, cartID, cartName string) {
	s.record(ctx, &domain.Activity{
		UserID:          user.ID,
		Type:            domain.ActivityCartDeleted,
		UserDisplayName: user.Name(),
		CartID:          cartID,
		CartName:        cartName,
	})
}

// RecordItemAdded records an item_added activity.
func (s *ActivityService) RecordItemAdded(ctx context.Context, user *domain.User, cartID, cartName, itemName string) {
	s.record(ctx, &domain.Activity{
		UserID:          user.ID,
		Type:            domain.ActivityItemAdded,
		UserDisplayName: user.Name(),
		CartID:          cartID,
		CartName:        cartName,
		ItemName:        itemName,
	})
}

// RecordItemRemoved records an item_removed activity.
func (s *ActivityService) RecordItemRemoved(ctx context.Context, user *domain.User, cartID, cartName, itemName string) {
	s.record(ctx, &domain.Activity{
		UserID:          user.ID,
		Type:            domain.ActivityItemRemoved,
		UserDisplayName: user.Name(),
		CartID:          cartID,
		CartName:        cartName,
		ItemName:        itemName,
	})
}

// RecordTodoCompleted records a todo_completed activity.
func (s *ActivityService) RecordTodoCompleted(ctx context.Context, user *domain.User, todo *domain.Todo) {
	s.record(ctx, &domain.Activity{
		UserID:          user.ID,
		Type:            domain.ActivityTodoCompleted,
		UserDisplayName: user.Name(),
		TodoID:          todo.ID,
		TodoTitle:       todo.Title,
	})
}

// clampLimit normalizes a requested feed limit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

// GetFeed returns the global activity feed, newest first.
// Pass the CreatedAt and ID of the last seen activity for cursor pagination.
func (s *ActivityService) GetFeed(ctx context.Context, limit int, before *time.Time, beforeID string) ([]*domain.Activity, error) {
	feed, err := s.activities.GetActivitiesFeed(ctx, clampLimit(limit), before, beforeID)
	if err != nil {
		return nil, fmt.Errorf("get activities feed: %w", err)
	}
	return feed, nil
}

// GetUserFeed returns a single user's activities, newest first.
func (s *ActivityService) GetUserFeed(ctx context.Context, userID string, limit int) ([]*domain.Activity, error) {
	feed, err := s.activities.GetUserActivities(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("get user activities: %w", err)
	}
	return feed, nil
}

// Ping verifies the backing activity store is reachable.
func (s *ActivityService) Ping(ctx context.Context) error {
	return s.activities.Ping(ctx)
}

// GetCartFeed returns a single cart's activities, newest first.
func (s *ActivityService) GetCartFeed(ctx context.Context, cartID string, limit int) ([]*domain.Activity, error) {
	feed, err := s.activities.GetCartActivities(ctx, cartID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("get cart activities: %w", err)
	}
	return feed, nil
}
