package binance

import (
	"context"
	"fmt"

	"github.com/fd1az/triarb/business/pricing/app"
	"github.com/fd1az/triarb/business/pricing/domain"
	"github.com/fd1az/triarb/internal/circuitbreaker"
	"github.com/fd1az/triarb/internal/httpclient"
	"github.com/fd1az/triarb/internal/logger"
	"github.com/fd1az/triarb/internal/ratelimit"
)

// Request weights as charged by Binance against the per-minute budget.
const (
	weightExchangeInfo = 20
	weightTickerPrice  = 2
	weightPing         = 1
)

var (
	_ app.PriceSource      = (*Provider)(nil)
	_ app.InstrumentSource = (*Provider)(nil)
)

// ProviderConfig holds configuration for the Binance provider.
type ProviderConfig struct {
	HTTP    HTTPClientConfig
	Breaker circuitbreaker.Config
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		HTTP:    DefaultHTTPClientConfig(),
		Breaker: circuitbreaker.DefaultConfig("binance.exchange_info"),
	}
}

// Provider serves the catalog and last prices from the Binance REST API.
// All calls share one rate limiter; catalog calls also pass a circuit breaker.
type Provider struct {
	http    *HTTPClient
	limiter *ratelimit.Limiter
	catalog *circuitbreaker.CircuitBreaker[[]domain.Instrument]
	logger  logger.LoggerInterface
}

// NewProvider creates a Binance provider. A nil limiter disables rate limiting.
func NewProvider(cfg ProviderConfig, limiter *ratelimit.Limiter, log logger.LoggerInterface, opts ...httpclient.ClientOption) (*Provider, error) {
	httpClient, err := NewHTTPClient(cfg.HTTP, log, opts...)
	if err != nil {
		return nil, err
	}

	breakerCfg := cfg.Breaker
	if breakerCfg.Name == "" {
		breakerCfg.Name = "binance.exchange_info"
	}
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
			log.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		}
	}

	return &Provider{
		http:    httpClient,
		limiter: limiter,
		catalog: circuitbreaker.New[[]domain.Instrument](breakerCfg),
		logger:  log,
	}, nil
}

// Instruments returns every listed instrument in exchange order.
func (p *Provider) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	return p.catalog.Execute(func() ([]domain.Instrument, error) {
		if err := p.limiter.WaitN(ctx, weightExchangeInfo); err != nil {
			return nil, err
		}

		info, err := p.http.GetExchangeInfo(ctx)
		if err != nil {
			return nil, err
		}

		instruments := make([]domain.Instrument, 0, len(info.Symbols))
		for _, s := range info.Symbols {
			instruments = append(instruments, domain.Instrument{
				Symbol:     domain.Symbol(s.Symbol),
				Status:     s.Status,
				BaseAsset:  s.BaseAsset,
				QuoteAsset: s.QuoteAsset,
			})
		}
		return instruments, nil
	})
}

// TickerPrice returns the raw last price for symbol. A response without a
// price yields an empty string.
func (p *Provider) TickerPrice(ctx context.Context, symbol domain.Symbol) (string, error) {
	if err := p.limiter.WaitN(ctx, weightTickerPrice); err != nil {
		return "", err
	}

	resp, err := p.http.GetTickerPrice(ctx, string(symbol))
	if err != nil {
		return "", err
	}
	return resp.Price, nil
}

// Ping checks REST connectivity.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.limiter.WaitN(ctx, weightPing); err != nil {
		return err
	}
	return p.http.Ping(ctx)
}

// CatalogBreakerState reports the catalog circuit breaker state.
func (p *Provider) CatalogBreakerState() circuitbreaker.State {
	return p.catalog.State()
}

// HealthCheck pings Binance and reports the breaker state.
func (p *Provider) HealthCheck(ctx context.Context) (bool, string) {
	state := p.CatalogBreakerState()
	if err := p.Ping(ctx); err != nil {
		return false, fmt.Sprintf("ping failed: %v (breaker %s)", err, state)
	}
	if state == circuitbreaker.StateOpen {
		return false, "catalog circuit breaker open"
	}
	return true, fmt.Sprintf("breaker %s", state)
}
