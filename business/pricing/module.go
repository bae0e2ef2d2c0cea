// Package pricing implements the pricing bounded context: the instrument
// catalog and last-price quotes.
package pricing

import (
	"context"
	"time"

	"github.com/fd1az/triarb/business/pricing/app"
	pricingDI "github.com/fd1az/triarb/business/pricing/di"
	"github.com/fd1az/triarb/business/pricing/infra/binance"
	"github.com/fd1az/triarb/internal/circuitbreaker"
	"github.com/fd1az/triarb/internal/config"
	"github.com/fd1az/triarb/internal/di"
	"github.com/fd1az/triarb/internal/logger"
	"github.com/fd1az/triarb/internal/monolith"
	"github.com/fd1az/triarb/internal/ratelimit"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.BinanceProvider, func(sr di.ServiceRegistry) *binance.Provider {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		limiter := sr.Get(monolith.RateLimiterService).(*ratelimit.Limiter)

		breaker := circuitbreaker.DefaultConfig("binance.exchange_info")
		breaker.ConsecutiveFailures = cfg.Binance.BreakerFailures
		breaker.Timeout = cfg.Binance.BreakerTimeout

		provider, err := binance.NewProvider(binance.ProviderConfig{
			HTTP: binance.HTTPClientConfig{
				BaseURL: cfg.Binance.BaseURL,
				Timeout: cfg.Binance.Timeout,
			},
			Breaker: breaker,
		}, limiter, log)
		if err != nil {
			panic("failed to create binance provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, pricingDI.BinanceStream, func(sr di.ServiceRegistry) *binance.StreamingSource {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		stream, err := binance.NewStreamingSource(binance.StreamConfig{
			URL:    cfg.Binance.StreamURL,
			MaxAge: cfg.Binance.StreamMaxAge,
		}, pricingDI.GetBinanceProvider(sr), log)
		if err != nil {
			panic("failed to create binance stream: " + err.Error())
		}
		return stream
	})

	di.RegisterToken(c, pricingDI.PriceFetcher, func(sr di.ServiceRegistry) *app.PriceFetcher {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		var source app.PriceSource = pricingDI.GetBinanceProvider(sr)
		if cfg.Binance.StreamEnabled {
			source = pricingDI.GetBinanceStream(sr)
		}

		return app.NewPriceFetcher(source, app.FetcherConfig{
			MaxAttempts: cfg.Fetcher.MaxAttempts,
			PaceDelay:   cfg.Fetcher.PaceDelay,
			Cooldown:    cfg.Fetcher.Cooldown,
		}, log)
	})

	di.RegisterToken(c, pricingDI.CatalogService, func(sr di.ServiceRegistry) *app.CatalogService {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		return app.NewCatalogService(pricingDI.GetBinanceProvider(sr), app.CatalogFilter{
			Symbols:     cfg.Catalog.Symbols,
			QuoteAssets: cfg.Catalog.QuoteAssets,
			TradingOnly: cfg.Catalog.TradingOnly,
			MaxSymbols:  cfg.Catalog.MaxSymbols,
		}, log)
	})

	return nil
}

// Startup checks Binance reachability and connects the price stream when
// enabled. Failures are logged, not fatal: every scan fetches the catalog
// afresh and stream misses fall back to REST.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	provider := pricingDI.GetBinanceProvider(mono.Services())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := provider.Ping(pingCtx); err != nil {
		log.Warn(ctx, "binance unreachable at startup", "error", err)
	}

	if h := mono.Health(); h != nil {
		h.RegisterCheck("binance", provider.HealthCheck)
	}

	if cfg.Binance.StreamEnabled {
		stream := pricingDI.GetBinanceStream(mono.Services())
		if err := stream.Start(ctx); err != nil {
			log.Warn(ctx, "binance stream unavailable, using REST prices", "error", err)
		}
		go func() {
			<-ctx.Done()
			if err := stream.Close(); err != nil {
				log.Warn(context.Background(), "binance stream close failed", "error", err)
			}
		}()
		if h := mono.Health(); h != nil {
			h.RegisterCheck("binance_stream", stream.HealthCheck)
		}
	}

	log.Info(ctx, "pricing module started",
		"base_url", cfg.Binance.BaseURL,
		"stream", cfg.Binance.StreamEnabled)
	return nil
}
