package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cartboardapp/cartboard-server/internal/domain"
	"github.com/cartboardapp/cartboard-server/internal/store"
)

func makeActivity(id string, userID string, createdAt time.Time) *domain.Activity {
	return &domain.Activity{
		ID:              id,
		UserID:          userID,
		Type:            domain.ActivityItemAdded,
		CreatedAt:       createdAt,
		UserDisplayName: "Alice",
		CartID:          "cart-groceries",
		CartName:        "Groceries",
		ItemName:        "Milk",
	}
}

func TestCreateAndGetActivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	a := makeActivity("activity-1", "user-alice", now)
	if err := s.CreateActivity(ctx, a); err != nil {
		t.Fatalf("create activity: %v", err)
	}

	got, err := s.GetActivity(ctx, "activity-1")
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if got.Type != domain.ActivityItemAdded {
		t.Errorf("expected type item_added, got %s", got.Type)
	}
	if got.CartName != "Groceries" {
		t.Errorf("expected cart name Groceries, got %q", got.CartName)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("expected created_at %v, got %v", now, got.CreatedAt)
	}
}

func TestCreateActivityDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := makeActivity("activity-dup", "user-alice", time.Now())
	if err := s.CreateActivity(ctx, a); err != nil {
		t.Fatalf("create activity: %v", err)
	}
	if err := s.CreateActivity(ctx, a); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetActivityNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetActivity(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetActivitiesFeedPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := range 5 {
		a := makeActivity(fmt.Sprintf("activity-%d", i), "user-alice", base.Add(time.Duration(i)*time.Minute))
		if err := s.CreateActivity(ctx, a); err != nil {
			t.Fatalf("create activity %d: %v", i, err)
		}
	}

	// First page: newest first.
	page, err := s.GetActivitiesFeed(ctx, 2, nil, "")
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(page))
	}
	if page[0].ID != "activity-4" || page[1].ID != "activity-3" {
		t.Errorf("unexpected page order: %s, %s", page[0].ID, page[1].ID)
	}

	// Second page via cursor.
	last := page[len(page)-1]
	page2, err := s.GetActivitiesFeed(ctx, 2, &last.CreatedAt, last.ID)
	if err != nil {
		t.Fatalf("get feed page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(page2))
	}
	if page2[0].ID != "activity-2" || page2[1].ID != "activity-1" {
		t.Errorf("unexpected page 2 order: %s, %s", page2[0].ID, page2[1].ID)
	}
}

func TestGetUserActivities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := s.CreateActivity(ctx, makeActivity("activity-a", "user-alice", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateActivity(ctx, makeActivity("activity-b", "user-bob", now.Add(time.Second))); err != nil {
		t.Fatalf("create: %v", err)
	}

	activities, err := s.GetUserActivities(ctx, "user-alice", 10)
	if err != nil {
		t.Fatalf("get user activities: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(activities))
	}
	if activities[0].ID != "activity-a" {
		t.Errorf("expected activity-a, got %s", activities[0].ID)
	}
}

func TestGetCartActivities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	a := makeActivity("activity-cart", "user-alice", now)
	if err := s.CreateActivity(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	other := &domain.Activity{
		ID:              "activity-todo",
		UserID:          "user-alice",
		Type:            domain.ActivityTodoCompleted,
		CreatedAt:       now,
		UserDisplayName: "Alice",
		TodoID:          "todo-1",
		TodoTitle:       "Buy milk",
	}
	if err := s.CreateActivity(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	activities, err := s.GetCartActivities(ctx, "cart-groceries", 10)
	if err != nil {
		t.Fatalf("get cart activities: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(activities))
	}
	if activities[0].ID != "activity-cart" {
		t.Errorf("expected activity-cart, got %s", activities[0].ID)
	}
}
