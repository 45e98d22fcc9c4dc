package api

import (
	"github.com/cartboardapp/cartboard-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *service.AuthService
	Session  *service.SessionService
	Cart     *service.CartService
	Todo     *service.TodoService
	Activity *service.ActivityService
}
