package providers

import (
	"github.com/samber/do/v2"

	"github.com/flipbookapp/flipbook-server/internal/config"
	"github.com/flipbookapp/flipbook-server/internal/logger"
	"github.com/flipbookapp/flipbook-server/internal/service"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// ProvideFlipbookService provides the sync orchestrator.
func ProvideFlipbookService(i do.Injector) (*service.FlipbookService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	resolver := do.MustInvoke[*workspace.Resolver](i)
	mover := do.MustInvoke[*workspace.Mover](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFlipbookService(storeHandle.Store, resolver, mover, cfg.Recent.Limit, log.Logger), nil
}

// ProvideAssetService provides the asset upload/gallery service.
func ProvideAssetService(i do.Injector) (*service.AssetService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	resolver := do.MustInvoke[*workspace.Resolver](i)
	flipbooks := do.MustInvoke[*service.FlipbookService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAssetService(storeHandle.Store, resolver, flipbooks, log.Logger), nil
}
