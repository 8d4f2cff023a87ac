// Package di provides dependency injection configuration for the flipbook
// server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/flipbookapp/flipbook-server/internal/config"
	"github.com/flipbookapp/flipbook-server/internal/di/providers"
	"github.com/flipbookapp/flipbook-server/internal/logger"
	"github.com/flipbookapp/flipbook-server/internal/service"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure.
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Storage layer: document database and filesystem workspace.
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideMover)

	// Business services.
	do.Provide(injector, providers.ProvideFlipbookService)
	do.Provide(injector, providers.ProvideAssetService)

	// Workers.
	do.Provide(injector, providers.ProvideUploadsWatcher)

	// Server.
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns nothing but errors early.
// Invoking each service here triggers its lazy construction so a broken
// dependency fails at startup, not on the first request.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*workspace.Resolver](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*workspace.Mover](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.FlipbookService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.AssetService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.UploadsWatcherHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
