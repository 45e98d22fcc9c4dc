package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cartboardapp/cartboard-server/internal/domain"
	domainerrors "github.com/cartboardapp/cartboard-server/internal/errors"
	"github.com/cartboardapp/cartboard-server/internal/id"
	"github.com/cartboardapp/cartboard-server/internal/sse"
	"github.com/cartboardapp/cartboard-server/internal/store"
)

// CartService manages shared shopping carts.
//
// Capacity limits are enforced with read-check-write sequences against
// the tree store. There is no transaction spanning the check and the
// write, so two concurrent calls can both pass the check; the limits
// are a UX guard, not a hard consistency guarantee.
type CartService struct {
	store      *store.Store
	activities *ActivityService
	sseManager *sse.Manager
	logger     *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	store *store.Store,
	activities *ActivityService,
	sseManager *sse.Manager,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		store:      store,
		activities: activities,
		sseManager: sseManager,
		logger:     logger,
	}
}

// CreateCartRequest contains the data for creating a cart.
type CreateCartRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// AddItemRequest contains the data for adding an item to a cart.
type AddItemRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Quantity string `json:"quantity" validate:"max=50"` // Free text, may be empty
}

// CreateCart creates a new cart owned by the user.
// The owner is enrolled as the first member and the cart is added to
// their cart index. Fails without writing when the user already
// belongs to the maximum number of carts.
func (s *CartService) CreateCart(ctx context.Context, user *domain.User, req CreateCartRequest) (*domain.Cart, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if err := s.checkUserCartCapacity(ctx, user.ID); err != nil {
		return nil, err
	}

	cartID, err := id.Generate("cart")
	if err != nil {
		return nil, fmt.Errorf("generate cart ID: %w", err)
	}

	cart := &domain.Cart{
		Syncable: domain.Syncable{
			ID: cartID,
		},
		Name:    req.Name,
		OwnerID: user.ID,
		Members: map[string]domain.CartMember{
			user.ID: {Name: user.Name()},
		},
		Items: map[string]domain.Item{},
	}
	cart.InitTimestamps()

	// Write the cart record first, then the index entry. If the second
	// write fails the cart exists without an index entry; the client
	// simply won't list it.
	if err := s.store.Write(ctx, store.CartPath(cartID), cart); err != nil {
		return nil, fmt.Errorf("write cart: %w", err)
	}
	if err := s.store.Write(ctx, store.CartsByUserEntryPath(user.ID, cartID), true); err != nil {
		return nil, fmt.Errorf("write cart index: %w", err)
	}

	s.activities.RecordCartCreated(ctx, user, cart)
	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewCartCreatedEvent(cart))
	}

	if s.logger != nil {
		s.logger.Info("Cart created",
			"cart_id", cartID,
			"owner_id", user.ID,
			"name", cart.Name,
		)
	}

	return cart, nil
}

// JoinCart adds the user to an existing cart.
// Fails without writing when the user is at their cart limit, the cart
// does not exist, or the cart already has the maximum number of members.
// Joining a cart the user already belongs to is a no-op.
func (s *CartService) JoinCart(ctx context.Context, user *domain.User, cartID string) (*domain.Cart, error) {
	if err := s.checkUserCartCapacity(ctx, user.ID); err != nil {
		return nil, err
	}

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if cart.IsMember(user.ID) {
		return cart, nil
	}
	if cart.IsFull() {
		return nil, domainerrors.CapacityExceeded("cart full")
	}

	member := domain.CartMember{Name: user.Name()}
	if err := s.store.Write(ctx, store.CartMemberPath(cartID, user.ID), member); err != nil {
		return nil, fmt.Errorf("write cart member: %w", err)
	}
	if err := s.store.Write(ctx, store.CartsByUserEntryPath(user.ID, cartID), true); err != nil {
		return nil, fmt.Errorf("write cart index: %w", err)
	}
	cart.Members[user.ID] = member

	s.activities.RecordCartJoined(ctx, user, cart)
	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewCartJoinedEvent(cartID, cart.Name, user.ID, member.Name))
	}

	if s.logger != nil {
		s.logger.Info("User joined cart",
			"cart_id", cartID,
			"user_id", user.ID,
		)
	}

	return cart, nil
}

// LeaveCart removes the user from a cart. The owner cannot leave their
// own cart; deleting it is the owner's only exit, which keeps the owner
// a member for as long as the cart exists.
// The membership record and the index entry are removed as two
// independent deletes; either may succeed without the other.
func (s *CartService) LeaveCart(ctx context.Context, user *domain.User, cartID string) error {
	// Fetch the name for the activity feed before the membership is gone.
	// A missing cart still gets the stale index entry cleaned up below.
	cartName := ""
	if cart, err := s.GetCart(ctx, cartID); err == nil {
		if cart.IsOwner(user.ID) {
			return domainerrors.Forbidden("the cart owner cannot leave; delete the cart instead")
		}
		cartName = cart.Name
	}

	if err := s.store.Delete(ctx, store.CartMemberPath(cartID, user.ID)); err != nil {
		return fmt.Errorf("delete cart member: %w", err)
	}
	if err := s.store.Delete(ctx, store.CartsByUserEntryPath(user.ID, cartID)); err != nil {
		return fmt.Errorf("delete cart index: %w", err)
	}

	s.activities.RecordCartLeft(ctx, user, cartID, cartName)
	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewCartLeftEvent(cartID, cartName, user.ID, user.Name()))
	}

	if s.logger != nil {
		s.logger.Info("User left cart",
			"cart_id", cartID,
			"user_id", user.ID,
		)
	}

	return nil
}

// DeleteCart deletes a cart and its entire subtree of members and items.
// The ownership check runs against the snapshot the caller last fetched,
// not a fresh read. Only the owner's own index entry is removed; other
// members keep a dangling entry until they leave.
func (s *CartService) DeleteCart(ctx context.Context, user *domain.User, cart *domain.Cart) error {
	if !cart.IsOwner(user.ID) {
		return domainerrors.Forbidden("only the cart owner can delete it")
	}

	if err := s.store.Delete(ctx, store.CartsByUserEntryPath(user.ID, cart.ID)); err != nil {
		return fmt.Errorf("delete cart index: %w", err)
	}
	if err := s.store.Delete(ctx, store.CartPath(cart.ID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	s.activities.RecordCartDeleted(ctx, user, cart.ID, cart.Name)
	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewCartDeletedEvent(cart.ID, time.Now()))
	}

	if s.logger != nil {
		s.logger.Info("Cart deleted",
			"cart_id", cart.ID,
			"owner_id", user.ID,
		)
	}

	return nil
}

// AddItem adds an item to a cart, stamped with the user's display name.
func (s *CartService) AddItem(ctx context.Context, user *domain.User, cartID string, req AddItemRequest) (*domain.Item, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	itemID, err := id.Generate("item")
	if err != nil {
		return nil, fmt.Errorf("generate item ID: %w", err)
	}

	item := &domain.Item{
		ID:       itemID,
		Name:     req.Name,
		Quantity: req.Quantity,
		AddedBy:  user.Name(),
	}
	if err := s.store.Write(ctx, store.CartItemPath(cartID, itemID), item); err != nil {
		return nil, fmt.Errorf("write item: %w", err)
	}

	s.activities.RecordItemAdded(ctx, user, cartID, cart.Name, item.Name)
	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewItemAddedEvent(cartID, item))
	}

	return item, nil
}

// RemoveItem deletes a single item node. Removing an item that does not
// exist is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, user *domain.User, cartID, itemID string) error {
	// Fetch names for the activity feed before the item is gone.
	cartName := ""
	itemName := ""
	if cart, err := s.GetCart(ctx, cartID); err == nil {
		cartName = cart.Name
		if item, ok := cart.Items[itemID]; ok {
			itemName = item.Name
		}
	}

	if err := s.store.Delete(ctx, store.CartItemPath(cartID, itemID)); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	s.activities.RecordItemRemoved(ctx, user, cartID, cartName, itemName)
	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewItemRemovedEvent(cartID, itemID))
	}

	return nil
}

// GetCart reads a cart by ID.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	snap, err := s.store.ReadOnce(ctx, store.CartPath(cartID))
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if !snap.Exists() {
		return nil, domainerrors.NotFound("not found")
	}

	var cart domain.Cart
	if err := snap.Decode(&cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.ID == "" {
		cart.ID = cartID
	}
	return &cart, nil
}

// ListUserCarts returns all carts in the user's index.
// Dangling index entries left behind by partial deletes are skipped.
func (s *CartService) ListUserCarts(ctx context.Context, userID string) ([]*domain.Cart, error) {
	snap, err := s.store.ReadOnce(ctx, store.CartsByUserPath(userID))
	if err != nil {
		return nil, fmt.Errorf("read cart index: %w", err)
	}
	if !snap.Exists() {
		return []*domain.Cart{}, nil
	}

	index, ok := snap.Value().(map[string]any)
	if !ok {
		return []*domain.Cart{}, nil
	}

	carts := make([]*domain.Cart, 0, len(index))
	for cartID := range index {
		cart, err := s.GetCart(ctx, cartID)
		if err != nil {
			continue
		}
		carts = append(carts, cart)
	}
	return carts, nil
}

// IsMember reports whether a user currently belongs to a cart.
// Used by the SSE manager to filter cart events.
func (s *CartService) IsMember(ctx context.Context, userID, cartID string) bool {
	snap, err := s.store.ReadOnce(ctx, store.CartMemberPath(cartID, userID))
	if err != nil {
		return false
	}
	return snap.Exists()
}

// WatchCart subscribes to changes to a cart's subtree.
// The handler receives an initial snapshot immediately, then one
// snapshot per committed change. Close the returned subscription to
// detach.
func (s *CartService) WatchCart(ctx context.Context, cartID string, handler store.SnapshotHandler) (*store.Subscription, error) {
	return s.store.Subscribe(ctx, store.CartPath(cartID), handler)
}

// WatchUserCartIndex subscribes to changes to a user's cart index.
func (s *CartService) WatchUserCartIndex(ctx context.Context, userID string, handler store.SnapshotHandler) (*store.Subscription, error) {
	return s.store.Subscribe(ctx, store.CartsByUserPath(userID), handler)
}

// checkUserCartCapacity enforces the per-user cart limit.
// Reads the user's cart index and counts entries; the subsequent write
// is not atomic with this check.
func (s *CartService) checkUserCartCapacity(ctx context.Context, userID string) error {
	snap, err := s.store.ReadOnce(ctx, store.CartsByUserPath(userID))
	if err != nil {
		return fmt.Errorf("read cart index: %w", err)
	}
	if snap.ChildCount() >= domain.MaxCartsPerUser {
		return domainerrors.CapacityExceeded(fmt.Sprintf("You cannot be part of more than %d carts.", domain.MaxCartsPerUser))
	}
	return nil
}
