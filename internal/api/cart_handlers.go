package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cartboardapp/cartboard-server/internal/color"
	"github.com/cartboardapp/cartboard-server/internal/domain"
	domainerrors "github.com/cartboardapp/cartboard-server/internal/errors"
	"github.com/cartboardapp/cartboard-server/internal/service"
)

func (s *Server) registerCartRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createCart",
		Method:      http.MethodPost,
		Path:        "/api/v1/carts",
		Summary:     "Create cart",
		Description: "Creates a new shared cart owned by the authenticated user",
		Tags:        []string{"Carts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCart)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCarts",
		Method:      http.MethodGet,
		Path:        "/api/v1/carts",
		Summary:     "List carts",
		Description: "Returns all carts the authenticated user belongs to",
		Tags:        []string{"Carts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCarts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCart",
		Method:      http.MethodGet,
		Path:        "/api/v1/carts/{cartID}",
		Summary:     "Get cart",
		Description: "Returns a single cart with its members and items",
		Tags:        []string{"Carts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCart)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCart",
		Method:      http.MethodDelete,
		Path:        "/api/v1/carts/{cartID}",
		Summary:     "Delete cart",
		Description: "Deletes a cart. Only the owner may delete it.",
		Tags:        []string{"Carts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCart)

	huma.Register(s.api, huma.Operation{
		OperationID: "joinCart",
		Method:      http.MethodPost,
		Path:        "/api/v1/carts/{cartID}/join",
		Summary:     "Join cart",
		Description: "Adds the authenticated user to an existing cart by ID",
		Tags:        []string{"Carts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleJoinCart)

	huma.Register(s.api, huma.Operation{
		OperationID: "leaveCart",
		Method:      http.MethodPost,
		Path:        "/api/v1/carts/{cartID}/leave",
		Summary:     "Leave cart",
		Description: "Removes the authenticated user from a cart",
		Tags:        []string{"Carts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLeaveCart)

	huma.Register(s.api, huma.Operation{
		OperationID: "addCartItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/carts/{cartID}/items",
		Summary:     "Add item",
		Description: "Adds an item to a cart, stamped with the user's display name",
		Tags:        []string{"Carts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeCartItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/carts/{cartID}/items/{itemID}",
		Summary:     "Remove item",
		Description: "Removes a single item from a cart",
		Tags:        []string{"Carts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveItem)
}

// === DTOs ===

// CreateCartRequest is the request body for creating a cart.
type CreateCartRequest struct {
	Name string `json:"name" validate:"required,max=200" doc:"Cart name"`
}

// CreateCartInput wraps the create request for Huma.
type CreateCartInput struct {
	Body CreateCartRequest
}

// CartIDInput identifies a cart by path parameter.
type CartIDInput struct {
	CartID string `path:"cartID" maxLength:"100" doc:"Cart ID"`
}

// AddItemRequest is the request body for adding an item.
type AddItemRequest struct {
	Name     string `json:"name" validate:"required,max=200" doc:"Item name"`
	Quantity string `json:"quantity,omitempty" validate:"omitempty,max=50" doc:"Free-text quantity (2, a dozen, ...)"`
}

// AddItemInput wraps the add-item request for Huma.
type AddItemInput struct {
	CartID string `path:"cartID" maxLength:"100" doc:"Cart ID"`
	Body   AddItemRequest
}

// RemoveItemInput identifies the item to remove.
type RemoveItemInput struct {
	CartID string `path:"cartID" maxLength:"100" doc:"Cart ID"`
	ItemID string `path:"itemID" maxLength:"100" doc:"Item ID"`
}

// CartMemberResponse contains one cart member.
type CartMemberResponse struct {
	Name        string `json:"name" doc:"Member display name"`
	AvatarColor string `json:"avatar_color" doc:"Deterministic hex color for the member's avatar"`
}

// ItemResponse contains one cart item.
type ItemResponse struct {
	ID       string `json:"id" doc:"Item ID"`
	Name     string `json:"name" doc:"Item name"`
	Quantity string `json:"quantity,omitempty" doc:"Free-text quantity"`
	AddedBy  string `json:"added_by" doc:"Display name of the user who added it"`
}

// CartResponse contains cart data in API responses. Members and items are
// keyed by ID, matching the tree layout the realtime stream exposes.
type CartResponse struct {
	ID        string                        `json:"id" doc:"Cart ID"`
	Name      string                        `json:"name" doc:"Cart name"`
	OwnerID   string                        `json:"owner_id" doc:"Owner user ID"`
	Members   map[string]CartMemberResponse `json:"members" doc:"Members keyed by user ID"`
	Items     map[string]ItemResponse       `json:"items" doc:"Items keyed by item ID"`
	CreatedAt time.Time                     `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt time.Time                     `json:"updated_at" doc:"Last update timestamp"`
}

// CartOutput wraps a single cart for Huma.
type CartOutput struct {
	Body CartResponse
}

// CartsOutput wraps a cart list for Huma.
type CartsOutput struct {
	Body struct {
		Carts []CartResponse `json:"carts" doc:"Carts the user belongs to"`
	}
}

// ItemOutput wraps a single item for Huma.
type ItemOutput struct {
	Body ItemResponse
}

// === Handlers ===

func (s *Server) handleCreateCart(ctx context.Context, input *CreateCartInput) (*CartOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	cart, err := s.services.Cart.CreateCart(ctx, user, service.CreateCartRequest{
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &CartOutput{Body: mapCartResponse(cart)}, nil
}

func (s *Server) handleListCarts(ctx context.Context, _ *struct{}) (*CartsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	carts, err := s.services.Cart.ListUserCarts(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]CartResponse, len(carts))
	for i, cart := range carts {
		resp[i] = mapCartResponse(cart)
	}

	out := &CartsOutput{}
	out.Body.Carts = resp
	return out, nil
}

func (s *Server) handleGetCart(ctx context.Context, input *CartIDInput) (*CartOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	cart, err := s.services.Cart.GetCart(ctx, input.CartID)
	if err != nil {
		return nil, err
	}

	// Cart contents are visible to members only.
	if !cart.IsMember(userID) {
		return nil, domainerrors.Forbidden("not a member of this cart")
	}

	return &CartOutput{Body: mapCartResponse(cart)}, nil
}

func (s *Server) handleDeleteCart(ctx context.Context, input *CartIDInput) (*MessageOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	cart, err := s.services.Cart.GetCart(ctx, input.CartID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Cart.DeleteCart(ctx, user, cart); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Cart deleted"}}, nil
}

func (s *Server) handleJoinCart(ctx context.Context, input *CartIDInput) (*CartOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	cart, err := s.services.Cart.JoinCart(ctx, user, input.CartID)
	if err != nil {
		return nil, err
	}

	return &CartOutput{Body: mapCartResponse(cart)}, nil
}

func (s *Server) handleLeaveCart(ctx context.Context, input *CartIDInput) (*MessageOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Cart.LeaveCart(ctx, user, input.CartID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Left cart"}}, nil
}

func (s *Server) handleAddItem(ctx context.Context, input *AddItemInput) (*ItemOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if !s.services.Cart.IsMember(ctx, user.ID, input.CartID) {
		return nil, domainerrors.Forbidden("not a member of this cart")
	}

	item, err := s.services.Cart.AddItem(ctx, user, input.CartID, service.AddItemRequest{
		Name:     input.Body.Name,
		Quantity: input.Body.Quantity,
	})
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: mapItemResponse(item)}, nil
}

func (s *Server) handleRemoveItem(ctx context.Context, input *RemoveItemInput) (*MessageOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if !s.services.Cart.IsMember(ctx, user.ID, input.CartID) {
		return nil, domainerrors.Forbidden("not a member of this cart")
	}

	if err := s.services.Cart.RemoveItem(ctx, user, input.CartID, input.ItemID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Item removed"}}, nil
}

// === Helpers ===

func mapCartResponse(cart *domain.Cart) CartResponse {
	members := make(map[string]CartMemberResponse, len(cart.Members))
	for userID, member := range cart.Members {
		members[userID] = CartMemberResponse{
			Name:        member.Name,
			AvatarColor: color.ForUser(userID),
		}
	}

	items := make(map[string]ItemResponse, len(cart.Items))
	for itemID, item := range cart.Items {
		resp := mapItemResponse(&item)
		if resp.ID == "" {
			resp.ID = itemID
		}
		items[itemID] = resp
	}

	return CartResponse{
		ID:        cart.ID,
		Name:      cart.Name,
		OwnerID:   cart.OwnerID,
		Members:   members,
		Items:     items,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func mapItemResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:       item.ID,
		Name:     item.Name,
		Quantity: item.Quantity,
		AddedBy:  item.AddedBy,
	}
}
