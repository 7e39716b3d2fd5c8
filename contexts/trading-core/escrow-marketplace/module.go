package escrowmarketplace

import (
	"log/slog"
	"time"

	"curio/contexts/trading-core/escrow-marketplace/adapters/cache"
	httpadapter "curio/contexts/trading-core/escrow-marketplace/adapters/http"
	"curio/contexts/trading-core/escrow-marketplace/adapters/memory"
	"curio/contexts/trading-core/escrow-marketplace/application/commands"
	"curio/contexts/trading-core/escrow-marketplace/application/queries"
	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	"curio/contexts/trading-core/escrow-marketplace/ports"
)

// Module is the composition surface for the marketplace within the runtime.
// Wiring should consume Handler; Store is exposed for tests/inspection.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Config      ports.ConfigRepository
	Reader      ports.ListingReader
	Listings    ports.ListingWriter
	Fees        ports.FeeVault
	Ledger      ports.LedgerReader
	Royalty     ports.RoyaltyPolicy
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	// CacheTTL > 0 wraps catalog queries in a TTL cache decorator.
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// NewModule wires the marketplace use cases against explicit ports.
func NewModule(deps Dependencies) Module {
	queryReader := deps.Reader
	if deps.CacheTTL > 0 {
		queryReader = cache.NewListingCache(deps.Reader, deps.CacheTTL)
	}

	handler := httpadapter.Handler{
		ListItem: commands.ListItemUseCase{
			Config:      deps.Config,
			Listings:    deps.Listings,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		ChangePrice: commands.ChangePriceUseCase{
			Config:      deps.Config,
			Reader:      deps.Reader,
			Listings:    deps.Listings,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		DelistItem: commands.DelistItemUseCase{
			Reader:      deps.Reader,
			Listings:    deps.Listings,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		ForceDelist: commands.ForceDelistUseCase{
			Config:      deps.Config,
			Listings:    deps.Listings,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		BuyItem: commands.BuyItemUseCase{
			Config:      deps.Config,
			Reader:      deps.Reader,
			Listings:    deps.Listings,
			Royalty:     deps.Royalty,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		SetMarketplace: commands.SetMarketplaceUseCase{
			Config: deps.Config,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
		SetStatus: commands.SetStatusUseCase{
			Config: deps.Config,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
		WithdrawFees: commands.WithdrawFeesUseCase{
			Config:      deps.Config,
			Fees:        deps.Fees,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		GetListing: queries.GetListingUseCase{
			Listings: queryReader,
			Logger:   deps.Logger,
		},
		ListListings: queries.ListListingsUseCase{
			Listings: queryReader,
			Logger:   deps.Logger,
		},
		Ledger: deps.Ledger,
		Logger: deps.Logger,
	}

	return Module{Handler: handler}
}

// NewInMemoryModule wires the marketplace against the in-memory store. This
// is the developer/runtime bootstrap path when no Postgres DSN is set.
func NewInMemoryModule(config entities.MarketConfig, royalty ports.RoyaltyPolicy, logger *slog.Logger) Module {
	store := memory.NewStore(config, logger)
	module := NewModule(Dependencies{
		Config:      store,
		Reader:      store,
		Listings:    store,
		Fees:        store,
		Ledger:      store,
		Royalty:     royalty,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
