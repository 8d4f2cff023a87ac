package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/flipbookapp/flipbook-server/internal/config"
	"github.com/flipbookapp/flipbook-server/internal/logger"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// ProvideResolver provides the path resolver rooted at the uploads tree,
// creating the root if it does not exist yet.
func ProvideResolver(i do.Injector) (*workspace.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if err := os.MkdirAll(cfg.Storage.UploadsPath, 0o755); err != nil {
		return nil, err
	}

	return workspace.NewResolver(cfg.Storage.UploadsPath, storeHandle.Store), nil
}

// ProvideMover provides the retrying filesystem mover.
func ProvideMover(i do.Injector) (*workspace.Mover, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return workspace.NewMover(workspace.DefaultMovePolicy, log.Logger), nil
}
