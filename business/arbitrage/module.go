// Package arbitrage implements the arbitrage bounded context: triple
// generation, cycle evaluation and scan orchestration.
package arbitrage

import (
	"context"

	"github.com/fd1az/triarb/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/triarb/business/arbitrage/di"
	"github.com/fd1az/triarb/business/arbitrage/infra/httpapi"
	pricingDI "github.com/fd1az/triarb/business/pricing/di"
	"github.com/fd1az/triarb/internal/config"
	"github.com/fd1az/triarb/internal/di"
	"github.com/fd1az/triarb/internal/logger"
	"github.com/fd1az/triarb/internal/monolith"
)

// Module implements the arbitrage bounded context. It depends on pricing.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		return app.NewScanner(
			pricingDI.GetCatalogService(sr),
			pricingDI.GetPriceFetcher(sr),
			app.ScannerConfig{
				Workers:            cfg.Scanner.Workers,
				MaxInFlightFetches: cfg.Scanner.MaxInFlightFetches,
			},
			log,
		)
	})

	di.RegisterToken(c, arbitrageDI.ScanService, func(sr di.ServiceRegistry) *app.ScanService {
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		return app.NewScanService(arbitrageDI.GetScanner(sr), log)
	})

	di.RegisterToken(c, arbitrageDI.ScanHandler, func(sr di.ServiceRegistry) *httpapi.Handler {
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		return httpapi.NewHandler(arbitrageDI.GetScanService(sr), log)
	})

	return nil
}

// Startup mounts the scan route and the scanner probe when the process
// provides an API server or health server.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	if srv := mono.HTTPServer(); srv != nil {
		arbitrageDI.GetScanHandler(sr).Register(srv)
		log.Info(ctx, "scan route registered", "route", httpapi.ScanRoute)
	}

	if h := mono.Health(); h != nil {
		h.RegisterCheck("scanner", arbitrageDI.GetScanService(sr).HealthCheck)
	}

	cfg := mono.Config().Scanner
	log.Info(ctx, "arbitrage module started",
		"workers", cfg.Workers,
		"max_in_flight_fetches", cfg.MaxInFlightFetches)
	return nil
}
