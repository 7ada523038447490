package services

import (
	portsrepo "github.com/holdwatch/valuation_backend/internal/core/ports/repositories"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/market"
	"github.com/holdwatch/valuation_backend/internal/platform/cache"
	"github.com/holdwatch/valuation_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies. The cache store is shared: it is the only shared
// mutable resource across concurrent requests.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, registry *market.Registry) *portssvc.ServiceContainer {
	cacheStore := cache.NewStore(repos.CacheRepo)

	container := &portssvc.ServiceContainer{}

	container.Quote = NewQuoteService(cacheStore, registry.QuoteProviders(), cfg.StockCacheTTL)
	container.Valuation = NewValuationService(
		repos.HoldingRepo,
		repos.ValuationRepo,
		cacheStore,
		container.Quote,
		registry.Fx(),
		cfg.HomeCurrency,
		cfg.FxCacheTTL,
		cfg.MarketEnable,
	)
	container.Trace = NewTraceService(repos.HoldingRepo, repos.ValuationRepo, repos.CacheRepo, cfg.HomeCurrency)
	container.Holding = NewHoldingService(repos.HoldingRepo)
	container.Metal = NewMetalService(cacheStore, registry.Metal(), cfg.MetalCacheTTL, cfg.MarketEnable)

	return container
}
