package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/triarb/internal/apperror"
	"github.com/fd1az/triarb/internal/httpclient"
	"github.com/fd1az/triarb/internal/logger"
)

const (
	// Binance REST API endpoints
	BaseAPIURL   = "https://api.binance.com"
	BaseAPIURLUS = "https://api.binance.us"

	exchangeInfoEndpoint = "/api/v3/exchangeInfo"
	tickerPriceEndpoint  = "/api/v3/ticker/price"
	pingEndpoint         = "/api/v3/ping"

	httpTimeout = 10 * time.Second

	tracerName = "github.com/fd1az/triarb/business/pricing/infra/binance"
)

// HTTPClientConfig holds configuration for the Binance HTTP client.
type HTTPClientConfig struct {
	BaseURL string        // API base URL (empty = default)
	Timeout time.Duration // Request timeout
}

// DefaultHTTPClientConfig returns sensible defaults.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		BaseURL: BaseAPIURL,
		Timeout: httpTimeout,
	}
}

// HTTPClient provides Binance REST API access.
type HTTPClient struct {
	client httpclient.Client
	config HTTPClientConfig
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewHTTPClient creates a new Binance HTTP client. Extra options are applied
// after the defaults.
func NewHTTPClient(cfg HTTPClientConfig, log logger.LoggerInterface, opts ...httpclient.ClientOption) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = httpTimeout
	}

	tracer := otel.Tracer(tracerName)

	options := append([]httpclient.ClientOption{
		httpclient.WithProviderName("binance"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTracer(tracer, false),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	}, opts...)

	client, err := httpclient.NewInstrumentedClient(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &HTTPClient{
		client: client,
		config: cfg,
		logger: log,
		tracer: tracer,
	}, nil
}

// ExchangeInfoResponse is the subset of /api/v3/exchangeInfo used for the catalog.
type ExchangeInfoResponse struct {
	Timezone   string       `json:"timezone"`
	ServerTime int64        `json:"serverTime"`
	Symbols    []SymbolInfo `json:"symbols"`
}

// SymbolInfo describes one listed instrument.
type SymbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

// TickerPriceResponse is the /api/v3/ticker/price body for a single symbol.
type TickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// GetExchangeInfo fetches the full instrument listing.
func (c *HTTPClient) GetExchangeInfo(ctx context.Context) (*ExchangeInfoResponse, error) {
	ctx, span := c.tracer.Start(ctx, "binance.http.exchange_info")
	defer span.End()

	var result ExchangeInfoResponse
	_, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "exchange_info")),
		httpclient.WithResponseErrorHandler(binanceErrorHandler),
	).
		SetResult(&result).
		Get(ctx, exchangeInfoEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, classify(err, "exchangeInfo")
	}

	span.SetAttributes(attribute.Int("symbols", len(result.Symbols)))
	c.logger.Debug(ctx, "fetched exchange info", "symbols", len(result.Symbols))

	return &result, nil
}

// GetTickerPrice fetches the last price for symbol.
func (c *HTTPClient) GetTickerPrice(ctx context.Context, symbol string) (*TickerPriceResponse, error) {
	ctx, span := c.tracer.Start(ctx, "binance.http.ticker_price",
		trace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	var result TickerPriceResponse
	_, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "ticker_price")),
		httpclient.WithResponseErrorHandler(binanceErrorHandler),
	).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get(ctx, tickerPriceEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, classify(err, "ticker/price "+symbol)
	}

	span.SetAttributes(attribute.String("price", result.Price))
	return &result, nil
}

// Ping checks REST connectivity.
func (c *HTTPClient) Ping(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "binance.http.ping")
	defer span.End()

	_, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "ping")),
		httpclient.WithResponseErrorHandler(binanceErrorHandler),
	).Get(ctx, pingEndpoint)
	if err != nil {
		span.RecordError(err)
		return classify(err, "ping")
	}
	return nil
}

// BinanceAPIError represents an error response from Binance API.
type BinanceAPIError struct {
	Code       int    `json:"code"`
	Message    string `json:"msg"`
	StatusCode int    `json:"-"`
}

func (e *BinanceAPIError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

// binanceErrorHandler maps error statuses to app errors, decoding the Binance
// error body when present. 429 and 418 (IP ban) are rate limiting.
func binanceErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}

	var cause error = fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	var apiErr BinanceAPIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		apiErr.StatusCode = statusCode
		cause = &apiErr
	}

	code := apperror.CodeBinanceAPIError
	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusTeapot {
		code = apperror.CodeBinanceRateLimited
	}

	return apperror.New(code,
		apperror.WithContext(fmt.Sprintf("HTTP %d", statusCode)),
		apperror.WithCause(cause))
}

// classify turns request failures into app errors. Context errors pass through.
func classify(err error, op string) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case apperror.IsAppError(err):
		return err
	case errors.Is(err, httpclient.ErrDecode):
		return apperror.New(apperror.CodeBinanceAPIError,
			apperror.WithContext(op+": malformed response"),
			apperror.WithCause(err))
	default:
		return apperror.New(apperror.CodeBinanceConnectionFailed,
			apperror.WithContext(op),
			apperror.WithCause(err))
	}
}
