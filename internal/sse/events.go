// Package sse implements Server-Sent Events for real-time cart and todo updates.
package sse

import (
	"time"

	"github.com/cartboardapp/cartboard-server/internal/domain"
)

// In Cartboard we only need server-to-client push for sync updates,
// since all mutations follow a request/response pattern.
// Full bidirectional communication may be implemented with WebSockets
// in the future if needed.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventCartCreated represents a cart creation event.
	EventCartCreated EventType = "cart.created"
	// EventCartJoined represents a user joining a cart.
	EventCartJoined EventType = "cart.joined"
	// EventCartLeft represents a user leaving a cart.
	EventCartLeft EventType = "cart.left"
	// EventCartDeleted represents a cart deletion event.
	EventCartDeleted EventType = "cart.deleted"

	// EventItemAdded represents an item being added to a cart.
	EventItemAdded EventType = "item.added"
	// EventItemRemoved represents an item being removed from a cart.
	EventItemRemoved EventType = "item.removed"

	// EventTodoCreated represents a todo creation event.
	EventTodoCreated EventType = "todo.created"
	// EventTodoUpdated represents a todo update event.
	EventTodoUpdated EventType = "todo.updated"
	// EventTodoToggled represents a todo status toggle event.
	EventTodoToggled EventType = "todo.toggled"
	// EventTodoDeleted represents a todo deletion event.
	EventTodoDeleted EventType = "todo.deleted"

	// EventSessionRevoked notifies a user that one of their sessions was revoked.
	EventSessionRevoked EventType = "session.revoked"

	// EventUserRegistered represents a new user registration.
	// Only sent to admin users.
	EventUserRegistered EventType = "user.registered"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// Filtering fields for multi-user support.
	// When set, events are only delivered to clients matching these criteria.
	// Empty string means "broadcast to all".
	UserID string `json:"-"` // Filter to specific user (not sent to client)
	CartID string `json:"-"` // Filter to members of a specific cart (not sent to client)
}

// CartEventData is the data payload for cart lifecycle events.
// Contains the full cart so events are self-contained and immediately
// renderable without additional reads.
type CartEventData struct {
	Cart *domain.Cart `json:"cart"`
}

// CartDeletedEventData is the data payload for cart delete events.
type CartDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	CartID    string    `json:"cart_id"`
}

// CartMembershipEventData is the data payload for join/leave events.
type CartMembershipEventData struct {
	CartID     string `json:"cart_id"`
	CartName   string `json:"cart_name"`
	UserID     string `json:"user_id"`
	MemberName string `json:"member_name"`
}

// ItemEventData is the data payload for item add/remove events.
type ItemEventData struct {
	CartID string       `json:"cart_id"`
	ItemID string       `json:"item_id"`
	Item   *domain.Item `json:"item,omitempty"`
}

// TodoEventData is the data payload for todo events.
type TodoEventData struct {
	Todo *domain.Todo `json:"todo"`
}

// TodoDeletedEventData is the data payload for todo delete events.
type TodoDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	TodoID    string    `json:"todo_id"`
}

// SessionRevokedEventData is the data payload for session revocation events.
type SessionRevokedEventData struct {
	SessionID string `json:"session_id"`
}

// UserRegisteredEventData is the data payload for user registration events.
type UserRegisteredEventData struct {
	User *domain.User `json:"user"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewCartCreatedEvent creates a cart.created event scoped to the cart's members.
func NewCartCreatedEvent(cart *domain.Cart) Event {
	return Event{
		Type:      EventCartCreated,
		Data:      CartEventData{Cart: cart},
		Timestamp: time.Now(),
		CartID:    cart.ID,
	}
}

// NewCartJoinedEvent creates a cart.joined event.
func NewCartJoinedEvent(cartID, cartName, userID, memberName string) Event {
	return Event{
		Type: EventCartJoined,
		Data: CartMembershipEventData{
			CartID:     cartID,
			CartName:   cartName,
			UserID:     userID,
			MemberName: memberName,
		},
		Timestamp: time.Now(),
		CartID:    cartID,
	}
}

// NewCartLeftEvent creates a cart.left event.
func NewCartLeftEvent(cartID, cartName, userID, memberName string) Event {
	return Event{
		Type: EventCartLeft,
		Data: CartMembershipEventData{
			CartID:     cartID,
			CartName:   cartName,
			UserID:     userID,
			MemberName: memberName,
		},
		Timestamp: time.Now(),
		CartID:    cartID,
	}
}

// NewCartDeletedEvent creates a cart.deleted event.
// The event is broadcast to all clients because membership records
// are gone by the time the event fires.
func NewCartDeletedEvent(cartID string, deletedAt time.Time) Event {
	return Event{
		Type: EventCartDeleted,
		Data: CartDeletedEventData{
			CartID:    cartID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewItemAddedEvent creates an item.added event scoped to the cart's members.
func NewItemAddedEvent(cartID string, item *domain.Item) Event {
	return Event{
		Type: EventItemAdded,
		Data: ItemEventData{
			CartID: cartID,
			ItemID: item.ID,
			Item:   item,
		},
		Timestamp: time.Now(),
		CartID:    cartID,
	}
}

// NewItemRemovedEvent creates an item.removed event scoped to the cart's members.
func NewItemRemovedEvent(cartID, itemID string) Event {
	return Event{
		Type: EventItemRemoved,
		Data: ItemEventData{
			CartID: cartID,
			ItemID: itemID,
		},
		Timestamp: time.Now(),
		CartID:    cartID,
	}
}

// NewTodoCreatedEvent creates a todo.created event for the todo's owner.
func NewTodoCreatedEvent(todo *domain.Todo) Event {
	return Event{
		Type:      EventTodoCreated,
		Data:      TodoEventData{Todo: todo},
		Timestamp: time.Now(),
		UserID:    todo.UserID,
	}
}

// NewTodoUpdatedEvent creates a todo.updated event for the todo's owner.
func NewTodoUpdatedEvent(todo *domain.Todo) Event {
	return Event{
		Type:      EventTodoUpdated,
		Data:      TodoEventData{Todo: todo},
		Timestamp: time.Now(),
		UserID:    todo.UserID,
	}
}

// NewTodoToggledEvent creates a todo.toggled event for the todo's owner.
func NewTodoToggledEvent(todo *domain.Todo) Event {
	return Event{
		Type:      EventTodoToggled,
		Data:      TodoEventData{Todo: todo},
		Timestamp: time.Now(),
		UserID:    todo.UserID,
	}
}

// NewTodoDeletedEvent creates a todo.deleted event for the todo's owner.
func NewTodoDeletedEvent(userID, todoID string, deletedAt time.Time) Event {
	return Event{
		Type: EventTodoDeleted,
		Data: TodoDeletedEventData{
			TodoID:    todoID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
		UserID:    userID,
	}
}

// NewSessionRevokedEvent creates a session.revoked event for the session's owner.
func NewSessionRevokedEvent(userID, sessionID string) Event {
	return Event{
		Type:      EventSessionRevoked,
		Data:      SessionRevokedEventData{SessionID: sessionID},
		Timestamp: time.Now(),
		UserID:    userID,
	}
}

// NewUserRegisteredEvent creates a user.registered event for admin users.
func NewUserRegisteredEvent(user *domain.User) Event {
	return Event{
		Type:      EventUserRegistered,
		Data:      UserRegisteredEventData{User: user},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
