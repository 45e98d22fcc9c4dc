package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartboardapp/cartboard-server/internal/domain"
	domainerrors "github.com/cartboardapp/cartboard-server/internal/errors"
	"github.com/cartboardapp/cartboard-server/internal/store"
	"github.com/cartboardapp/cartboard-server/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCartTest creates a cart service with temporary storage for testing.
func setupCartTest(t *testing.T) (*CartService, *store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "cartboard-cart-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "data"), nil)
	require.NoError(t, err)

	activities, err := sqlite.Open(filepath.Join(tmpDir, "activities.db"), nil)
	require.NoError(t, err)

	activityService := NewActivityService(activities, nil)
	cartService := NewCartService(s, activityService, nil, nil)

	cleanup := func() {
		_ = s.Close()
		_ = activities.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return cartService, s, cleanup
}

func makeUser(id, name string) *domain.User {
	return &domain.User{
		Syncable:    domain.Syncable{ID: id},
		Email:       id + "@example.com",
		DisplayName: name,
	}
}

func TestCartService_CreateCart(t *testing.T) {
	cartService, s, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)
	assert.NotEmpty(t, cart.ID)
	assert.Equal(t, "Groceries", cart.Name)
	assert.Equal(t, alice.ID, cart.OwnerID)

	// Owner is enrolled as the first member.
	require.Contains(t, cart.Members, alice.ID)
	assert.Equal(t, "Alice", cart.Members[alice.ID].Name)

	// Readback through the store.
	got, err := cartService.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.Name, got.Name)
	assert.Equal(t, 1, got.MemberCount())

	// Index entry was written.
	snap, err := s.ReadOnce(ctx, store.CartsByUserPath(alice.ID))
	require.NoError(t, err)
	assert.True(t, snap.HasChild(cart.ID))
}

func TestCartService_CreateCart_ValidationError(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	_, err := cartService.CreateCart(context.Background(), makeUser("user-alice", "Alice"), CreateCartRequest{})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestCartService_CreateCart_CapacityExceeded(t *testing.T) {
	cartService, s, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	// Fill the user's index to the limit.
	for i := range domain.MaxCartsPerUser {
		err := s.Write(ctx, store.CartsByUserEntryPath(alice.ID, fmt.Sprintf("cart-%d", i)), true)
		require.NoError(t, err)
	}

	_, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Snacks"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrCapacityExceeded))
	assert.Contains(t, err.Error(), "You cannot be part of more than 3 carts.")

	// The rejected call must not have written anything.
	snap, err := s.ReadOnce(ctx, store.CartsByUserPath(alice.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.MaxCartsPerUser, snap.ChildCount())

	carts, err := cartService.ListUserCarts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, carts, "no real cart records should exist")
}

func TestCartService_JoinCart(t *testing.T) {
	cartService, s, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")
	bob := makeUser("user-bob", "Bob")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)

	joined, err := cartService.JoinCart(ctx, bob, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, joined.MemberCount())
	assert.Contains(t, joined.Members, bob.ID)

	// Bob's index gained an entry.
	snap, err := s.ReadOnce(ctx, store.CartsByUserPath(bob.ID))
	require.NoError(t, err)
	assert.True(t, snap.HasChild(cart.ID))
}

func TestCartService_JoinCart_NotFound(t *testing.T) {
	cartService, s, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	bob := makeUser("user-bob", "Bob")

	_, err := cartService.JoinCart(ctx, bob, "nonexistent-id")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	// No writes were performed.
	snap, err := s.ReadOnce(ctx, store.CartsByUserPath(bob.ID))
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func TestCartService_JoinCart_Full(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)

	// Fill the cart to its member limit.
	for i := 1; i < domain.MaxCartMembers; i++ {
		member := makeUser(fmt.Sprintf("user-%d", i), fmt.Sprintf("Member %d", i))
		_, err := cartService.JoinCart(ctx, member, cart.ID)
		require.NoError(t, err)
	}

	late := makeUser("user-late", "Late")
	_, err = cartService.JoinCart(ctx, late, cart.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrCapacityExceeded))
	assert.Contains(t, err.Error(), "cart full")
}

func TestCartService_JoinCart_AlreadyMember(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)

	// Rejoining your own cart is a no-op, not an error.
	joined, err := cartService.JoinCart(ctx, alice, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, joined.MemberCount())
}

func TestCartService_JoinCart_CapacityExceeded(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")
	bob := makeUser("user-bob", "Bob")

	// Bob joins the maximum number of carts.
	for i := range domain.MaxCartsPerUser {
		cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: fmt.Sprintf("Cart %d", i)})
		require.NoError(t, err)
		_, err = cartService.JoinCart(ctx, bob, cart.ID)
		require.NoError(t, err)
	}

	extra, err := cartService.CreateCart(ctx, makeUser("user-carol", "Carol"), CreateCartRequest{Name: "Extra"})
	require.NoError(t, err)

	// A fourth cart is rejected.
	_, err = cartService.JoinCart(ctx, bob, extra.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrCapacityExceeded))
	assert.Contains(t, err.Error(), "You cannot be part of more than 3 carts.")
}

func TestCartService_LeaveCart(t *testing.T) {
	cartService, s, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")
	bob := makeUser("user-bob", "Bob")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)
	_, err = cartService.JoinCart(ctx, bob, cart.ID)
	require.NoError(t, err)

	require.NoError(t, cartService.LeaveCart(ctx, bob, cart.ID))

	got, err := cartService.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.Members, bob.ID)
	assert.Contains(t, got.Members, alice.ID)

	snap, err := s.ReadOnce(ctx, store.CartsByUserEntryPath(bob.ID, cart.ID))
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func TestCartService_LeaveCart_OwnerForbidden(t *testing.T) {
	cartService, s, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")
	bob := makeUser("user-bob", "Bob")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)
	_, err = cartService.JoinCart(ctx, bob, cart.ID)
	require.NoError(t, err)

	err = cartService.LeaveCart(ctx, alice, cart.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))

	// The owner is still a member and still indexed.
	got, err := cartService.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Members, alice.ID)
	assert.Equal(t, alice.ID, got.OwnerID)

	snap, err := s.ReadOnce(ctx, store.CartsByUserEntryPath(alice.ID, cart.ID))
	require.NoError(t, err)
	assert.True(t, snap.Exists())
}

func TestCartService_LeaveCart_NotMember(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)

	// Leaving a cart you're not in deletes nothing and succeeds.
	err = cartService.LeaveCart(ctx, makeUser("user-bob", "Bob"), cart.ID)
	require.NoError(t, err)
}

func TestCartService_DeleteCart(t *testing.T) {
	cartService, s, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)
	_, err = cartService.AddItem(ctx, alice, cart.ID, AddItemRequest{Name: "Milk", Quantity: "2"})
	require.NoError(t, err)

	// Refetch so the ownership check sees the latest snapshot.
	cart, err = cartService.GetCart(ctx, cart.ID)
	require.NoError(t, err)

	require.NoError(t, cartService.DeleteCart(ctx, alice, cart))

	// The entire subtree is gone, items included.
	snap, err := s.ReadOnce(ctx, store.CartPath(cart.ID))
	require.NoError(t, err)
	assert.False(t, snap.Exists())

	_, err = cartService.GetCart(ctx, cart.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	// Owner's index entry was removed.
	idxSnap, err := s.ReadOnce(ctx, store.CartsByUserEntryPath(alice.ID, cart.ID))
	require.NoError(t, err)
	assert.False(t, idxSnap.Exists())
}

func TestCartService_DeleteCart_NotOwner(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")
	bob := makeUser("user-bob", "Bob")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)
	_, err = cartService.JoinCart(ctx, bob, cart.ID)
	require.NoError(t, err)

	cart, err = cartService.GetCart(ctx, cart.ID)
	require.NoError(t, err)

	err = cartService.DeleteCart(ctx, bob, cart)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))

	// Cart survives.
	_, err = cartService.GetCart(ctx, cart.ID)
	require.NoError(t, err)
}

func TestCartService_AddItem(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)

	item, err := cartService.AddItem(ctx, alice, cart.ID, AddItemRequest{Name: "Milk", Quantity: "2"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Alice", item.AddedBy)

	got, err := cartService.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.Contains(t, got.Items, item.ID)
	assert.Equal(t, "Milk", got.Items[item.ID].Name)
	assert.Equal(t, "2", got.Items[item.ID].Quantity)
}

func TestCartService_AddItem_EmptyName(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)

	_, err = cartService.AddItem(ctx, alice, cart.ID, AddItemRequest{Name: "", Quantity: "1"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestCartService_RemoveItem(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)
	item, err := cartService.AddItem(ctx, alice, cart.ID, AddItemRequest{Name: "Milk", Quantity: "1"})
	require.NoError(t, err)

	require.NoError(t, cartService.RemoveItem(ctx, alice, cart.ID, item.ID))

	got, err := cartService.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.Items, item.ID)

	// Removing it again is a no-op.
	require.NoError(t, cartService.RemoveItem(ctx, alice, cart.ID, item.ID))
}

func TestCartService_ListUserCarts(t *testing.T) {
	cartService, s, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	_, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)
	_, err = cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Hardware"})
	require.NoError(t, err)

	carts, err := cartService.ListUserCarts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, carts, 2)

	// A dangling index entry is skipped, not an error.
	require.NoError(t, s.Write(ctx, store.CartsByUserEntryPath(alice.ID, "cart-ghost"), true))
	carts, err = cartService.ListUserCarts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, carts, 2)
}

func TestCartService_IsMember(t *testing.T) {
	cartService, _, cleanup := setupCartTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	cart, err := cartService.CreateCart(ctx, alice, CreateCartRequest{Name: "Groceries"})
	require.NoError(t, err)

	assert.True(t, cartService.IsMember(ctx, alice.ID, cart.ID))
	assert.False(t, cartService.IsMember(ctx, "user-bob", cart.ID))
	assert.False(t, cartService.IsMember(ctx, alice.ID, "cart-ghost"))
}
