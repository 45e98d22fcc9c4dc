// Package main provides the entry point for the Cartboard server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/cartboardapp/cartboard-server/internal/di"
	"github.com/cartboardapp/cartboard-server/internal/di/providers"
	"github.com/cartboardapp/cartboard-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The stores use wrapper types, so close them explicitly
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing tree store...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close tree store", "error", err)
		} else {
			log.Info("Tree store closed successfully")
		}
	}

	if activityHandle, err := do.Invoke[*providers.ActivityStoreHandle](injector); err == nil {
		log.Info("Closing activity store...")
		if err := activityHandle.Shutdown(); err != nil {
			log.Error("Failed to close activity store", "error", err)
		} else {
			log.Info("Activity store closed successfully")
		}
	}

	log.Info("See you space cowboy...")
}
