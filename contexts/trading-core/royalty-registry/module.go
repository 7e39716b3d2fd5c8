package royaltyregistry

import (
	"log/slog"

	httpadapter "curio/contexts/trading-core/royalty-registry/adapters/http"
	"curio/contexts/trading-core/royalty-registry/adapters/memory"
	"curio/contexts/trading-core/royalty-registry/application"
	"curio/contexts/trading-core/royalty-registry/domain/entities"
	"curio/contexts/trading-core/royalty-registry/ports"
)

// Module is the composition surface for the registry. Service doubles as the
// royalty policy consumed by the marketplace purchase path.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo        ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:        deps.Repo,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// NewInMemoryModule wires the registry against the in-memory store.
func NewInMemoryModule(config entities.RegistryConfig, logger *slog.Logger) Module {
	store := memory.NewStore(config, logger)
	module := NewModule(Dependencies{
		Repo:        store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
