package providers

import (
	"github.com/samber/do/v2"

	"github.com/cartboardapp/cartboard-server/internal/auth"
	"github.com/cartboardapp/cartboard-server/internal/logger"
	"github.com/cartboardapp/cartboard-server/internal/service"
)

// ProvideActivityService provides the activity feed service.
func ProvideActivityService(i do.Injector) (*service.ActivityService, error) {
	activityStore := do.MustInvoke[*ActivityStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewActivityService(activityStore.Store, log.Logger), nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, sseHandle.Manager, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, sseHandle.Manager, log.Logger), nil
}

// ProvideCartService provides the shared cart service.
// Cart events on the SSE stream are filtered by membership, so the
// manager's access checker is wired here.
func ProvideCartService(i do.Injector) (*service.CartService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	activityService := do.MustInvoke[*service.ActivityService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewCartService(storeHandle.Store, activityService, sseHandle.Manager, log.Logger)
	sseHandle.SetCartAccessChecker(svc.IsMember)

	return svc, nil
}

// ProvideTodoService provides the personal todo service.
func ProvideTodoService(i do.Injector) (*service.TodoService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	activityService := do.MustInvoke[*service.ActivityService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTodoService(storeHandle.Store, activityService, sseHandle.Manager, log.Logger), nil
}
