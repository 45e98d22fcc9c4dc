package store

import (
	"fmt"
	"strings"
)

// Tree path helpers. Paths are slash-separated, with no leading or
// trailing slash. The canonical schema is:
//
//	carts/{cartId}
//	carts/{cartId}/items/{itemId}
//	cartsByUser/{userId}/{cartId}
//	todos/{userId}/{todoId}

// CartPath returns the tree path holding a cart record.
func CartPath(cartID string) string {
	return "carts/" + cartID
}

// CartMemberPath returns the tree path holding one member entry of a cart.
func CartMemberPath(cartID, userID string) string {
	return "carts/" + cartID + "/members/" + userID
}

// CartItemPath returns the tree path holding one item of a cart.
func CartItemPath(cartID, itemID string) string {
	return "carts/" + cartID + "/items/" + itemID
}

// CartsByUserPath returns the tree path of a user's cart membership index.
func CartsByUserPath(userID string) string {
	return "cartsByUser/" + userID
}

// CartsByUserEntryPath returns the tree path of one index entry in a
// user's cart membership index.
func CartsByUserEntryPath(userID, cartID string) string {
	return "cartsByUser/" + userID + "/" + cartID
}

// TodosPath returns the tree path holding all todos of a user.
func TodosPath(userID string) string {
	return "todos/" + userID
}

// TodoPath returns the tree path holding a single todo record.
func TodoPath(userID, todoID string) string {
	return "todos/" + userID + "/" + todoID
}

// validatePath checks that a tree path is well-formed: non-empty,
// slash-separated, no empty segments, no leading or trailing slash.
func validatePath(path string) error {
	if path == "" {
		return ErrInvalidInput.WithMessage("tree path cannot be empty")
	}
	if strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return ErrInvalidInput.WithMessage(fmt.Sprintf("tree path %q must not start or end with a slash", path))
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return ErrInvalidInput.WithMessage(fmt.Sprintf("tree path %q contains an empty segment", path))
		}
	}
	return nil
}

// splitPath returns the slash-separated segments of a path.
func splitPath(path string) []string {
	return strings.Split(path, "/")
}

// isAncestorOrSelf reports whether a is the same path as b or a
// segment-wise ancestor of b.
func isAncestorOrSelf(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(b, a+"/")
}

// pathsOverlap reports whether a change at one path is visible to a
// subscriber at the other: true when either path is an ancestor of (or
// equal to) the other.
func pathsOverlap(a, b string) bool {
	return isAncestorOrSelf(a, b) || isAncestorOrSelf(b, a)
}
