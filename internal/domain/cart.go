package domain

// Membership limits. Both are enforced by a read-then-write check in the
// cart service, not by the store itself, so they hold for sequential
// operations only.
const (
	// MaxCartsPerUser caps how many carts a single user can belong to.
	MaxCartsPerUser = 3
	// MaxCartMembers caps how many users a single cart can hold.
	MaxCartMembers = 5
)

// CartMember holds the denormalized display name of a cart member,
// keyed by user ID in Cart.Members.
type CartMember struct {
	Name string `json:"name"`
}

// Item represents a single entry on a shared shopping cart.
// Items are created and deleted but never updated in place.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"` // Free text, may be empty ("2", "a dozen", "")
	AddedBy  string `json:"added_by"` // Display name of the user who added it
}

// Cart represents a shared shopping list with bounded membership.
// The owner is always a member; only the owner may delete the cart.
type Cart struct {
	Syncable
	Name    string                `json:"name"`
	OwnerID string                `json:"owner_id"`
	Members map[string]CartMember `json:"members"`
	Items   map[string]Item       `json:"items,omitempty"`
}

// IsOwner returns true if the given user owns this cart.
func (c *Cart) IsOwner(userID string) bool {
	return c.OwnerID == userID
}

// IsMember returns true if the given user is a member of this cart.
func (c *Cart) IsMember(userID string) bool {
	_, ok := c.Members[userID]
	return ok
}

// MemberCount returns the current number of members.
func (c *Cart) MemberCount() int {
	return len(c.Members)
}

// IsFull returns true if the cart has reached its membership cap.
func (c *Cart) IsFull() bool {
	return len(c.Members) >= MaxCartMembers
}

// AddMember records a user as a member. Returns false if the user
// was already a member.
func (c *Cart) AddMember(userID, name string) bool {
	if c.Members == nil {
		c.Members = make(map[string]CartMember)
	}
	if _, ok := c.Members[userID]; ok {
		return false
	}
	c.Members[userID] = CartMember{Name: name}
	return true
}

// RemoveMember removes a user from the member map. Returns false if the
// user was not a member.
func (c *Cart) RemoveMember(userID string) bool {
	if _, ok := c.Members[userID]; !ok {
		return false
	}
	delete(c.Members, userID)
	return true
}

// ItemCount returns the number of items currently in the cart.
func (c *Cart) ItemCount() int {
	return len(c.Items)
}
