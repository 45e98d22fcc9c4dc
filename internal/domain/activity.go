package domain

import "time"

// ActivityType represents the type of recorded activity.
type ActivityType string

const (
	// ActivityCartCreated is recorded when a user creates a cart.
	ActivityCartCreated ActivityType = "cart_created"

	// ActivityCartJoined is recorded when a user joins a cart.
	ActivityCartJoined ActivityType = "cart_joined"

	// ActivityCartLeft is recorded when a user leaves a cart.
	ActivityCartLeft ActivityType = "cart_left"

	// ActivityCartDeleted is recorded when the owner deletes a cart.
	ActivityCartDeleted ActivityType = "cart_deleted"

	// ActivityItemAdded is recorded when a user adds an item to a cart.
	ActivityItemAdded ActivityType = "item_added"

	// ActivityItemRemoved is recorded when a user removes an item from a cart.
	ActivityItemRemoved ActivityType = "item_removed"

	// ActivityTodoCompleted is recorded when a user completes a todo.
	ActivityTodoCompleted ActivityType = "todo_completed"
)

// Activity represents a single event in a user's activity feed.
// Activities are immutable once created. User and cart info is
// denormalized so feeds render without joins.
type Activity struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Type      ActivityType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`

	// Denormalized user info for immediate rendering
	UserDisplayName string `json:"user_display_name"`

	// Cart activities
	CartID   string `json:"cart_id,omitempty"`
	CartName string `json:"cart_name,omitempty"`

	// Item activities (item_added, item_removed)
	ItemName string `json:"item_name,omitempty"`

	// Todo activities (todo_completed)
	TodoID    string `json:"todo_id,omitempty"`
	TodoTitle string `json:"todo_title,omitempty"`
}
