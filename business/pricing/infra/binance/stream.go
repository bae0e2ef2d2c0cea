package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/fd1az/triarb/business/pricing/app"
	"github.com/fd1az/triarb/business/pricing/domain"
	"github.com/fd1az/triarb/internal/apperror"
	"github.com/fd1az/triarb/internal/logger"
	"github.com/fd1az/triarb/internal/wsconn"
)

const (
	// MiniTickerStreamURL carries a last price update for every symbol that
	// traded in the past second.
	MiniTickerStreamURL = "wss://stream.binance.com:9443/ws/!miniTicker@arr"

	streamMeterName = "github.com/fd1az/triarb/business/pricing/binance"
)

var _ app.PriceSource = (*StreamingSource)(nil)

// miniTicker is one element of the !miniTicker@arr payload. Both "e" and
// "E" are declared: json key matching is case-insensitive, so an undeclared
// "e" would be decoded into EventTime.
type miniTicker struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

type cachedPrice struct {
	price string
	at    time.Time
}

// StreamConfig configures the streaming price source.
type StreamConfig struct {
	URL    string
	MaxAge time.Duration
}

type streamMetrics struct {
	updates  metric.Int64Counter
	hits     metric.Int64Counter
	misses   metric.Int64Counter
	badFrame metric.Int64Counter
}

// StreamingSource serves last prices from the miniTicker stream and falls back
// to a REST source for symbols that have no fresh stream price.
type StreamingSource struct {
	cfg      StreamConfig
	fallback app.PriceSource
	conn     *wsconn.Client
	log      logger.LoggerInterface
	now      func() time.Time
	metrics  streamMetrics

	mu     sync.RWMutex
	prices map[domain.Symbol]cachedPrice
}

// NewStreamingSource creates a streaming source. Call Start to connect.
func NewStreamingSource(cfg StreamConfig, fallback app.PriceSource, log logger.LoggerInterface) (*StreamingSource, error) {
	if cfg.URL == "" {
		cfg.URL = MiniTickerStreamURL
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 5 * time.Second
	}

	conn, err := wsconn.New(wsconn.DefaultConfig(cfg.URL, "binance.miniTicker"))
	if err != nil {
		return nil, apperror.New(apperror.CodeBinanceConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to create stream connection"))
	}

	s := &StreamingSource{
		cfg:      cfg,
		fallback: fallback,
		conn:     conn,
		log:      log,
		now:      time.Now,
		metrics:  newStreamMetrics(),
		prices:   make(map[domain.Symbol]cachedPrice),
	}

	conn.OnMessage(s.handleMessage)
	conn.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			log.Warn(context.Background(), "binance stream state changed", "state", state, "error", err)
			return
		}
		log.Debug(context.Background(), "binance stream state changed", "state", state)
	})

	return s, nil
}

func newStreamMetrics() streamMetrics {
	meter := otel.Meter(streamMeterName)
	c := func(name, desc string) metric.Int64Counter {
		ctr, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			return noop.Int64Counter{}
		}
		return ctr
	}
	return streamMetrics{
		updates:  c("binance_stream_updates_total", "Prices received from the miniTicker stream"),
		hits:     c("binance_stream_hits_total", "Prices served from the stream cache"),
		misses:   c("binance_stream_misses_total", "Prices served by the REST fallback"),
		badFrame: c("binance_stream_parse_errors_total", "Stream frames that failed to decode"),
	}
}

// Start connects to the stream. Reconnects after a drop are handled by the
// underlying connection.
func (s *StreamingSource) Start(ctx context.Context) error {
	if err := s.conn.Connect(ctx); err != nil {
		return apperror.New(apperror.CodeBinanceConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect to binance stream"))
	}
	s.log.Info(ctx, "binance stream connected", "url", s.cfg.URL)
	return nil
}

// Close disconnects from the stream.
func (s *StreamingSource) Close() error {
	return s.conn.Close()
}

func (s *StreamingSource) handleMessage(ctx context.Context, data []byte) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		s.metrics.badFrame.Add(ctx, 1)
		s.log.Debug(ctx, "failed to parse stream frame", "error", err, "data", string(data[:min(len(data), 200)]))
		return
	}

	at := s.now()
	updated := 0

	s.mu.Lock()
	for _, raw := range elems {
		var t miniTicker
		if err := json.Unmarshal(raw, &t); err != nil {
			s.metrics.badFrame.Add(ctx, 1)
			continue
		}
		if t.Symbol == "" || t.Close == "" {
			continue
		}
		s.prices[domain.Symbol(t.Symbol)] = cachedPrice{price: t.Close, at: at}
		updated++
	}
	s.mu.Unlock()

	s.metrics.updates.Add(ctx, int64(updated))
}

// TickerPrice returns the cached stream price when it is fresher than MaxAge,
// otherwise it asks the fallback source.
func (s *StreamingSource) TickerPrice(ctx context.Context, symbol domain.Symbol) (string, error) {
	if price, ok := s.cached(symbol); ok {
		s.metrics.hits.Add(ctx, 1)
		return price, nil
	}

	s.metrics.misses.Add(ctx, 1)
	return s.fallback.TickerPrice(ctx, symbol)
}

func (s *StreamingSource) cached(symbol domain.Symbol) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[symbol]
	if !ok || s.now().Sub(p.at) > s.cfg.MaxAge {
		return "", false
	}
	return p.price, true
}

// Cached returns how many symbols currently have a stream price.
func (s *StreamingSource) Cached() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prices)
}

// HealthCheck reports the stream connection state. A disconnected stream is
// unhealthy even though prices still flow through the REST fallback.
func (s *StreamingSource) HealthCheck(context.Context) (bool, string) {
	state := s.conn.State()
	if state != wsconn.StateConnected {
		return false, fmt.Sprintf("stream %s", state)
	}
	return true, fmt.Sprintf("stream connected, %d symbols cached", s.Cached())
}
