package app

import (
	"context"
	"strings"

	"github.com/fd1az/triarb/business/pricing/domain"
	"github.com/fd1az/triarb/internal/apperror"
	"github.com/fd1az/triarb/internal/logger"
)

// CatalogFilter narrows the exchange catalog before a scan. Zero values
// disable each filter.
type CatalogFilter struct {
	Symbols     []string
	QuoteAssets []string
	TradingOnly bool
	MaxSymbols  int
}

// CatalogService produces the symbol catalog for a scan.
type CatalogService struct {
	source InstrumentSource
	filter CatalogFilter
	log    logger.LoggerInterface

	allow  map[string]struct{}
	quotes map[string]struct{}
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(source InstrumentSource, filter CatalogFilter, log logger.LoggerInterface) *CatalogService {
	return &CatalogService{
		source: source,
		filter: filter,
		log:    log,
		allow:  upperSet(filter.Symbols),
		quotes: upperSet(filter.QuoteAssets),
	}
}

// Catalog fetches the instruments and applies the filters, keeping exchange
// order. An empty result is not an error here.
func (s *CatalogService) Catalog(ctx context.Context) (domain.Catalog, error) {
	instruments, err := s.source.Instruments(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExternalServiceError, "fetch instruments")
	}

	catalog := make(domain.Catalog, 0, len(instruments))
	for _, in := range instruments {
		if !s.keep(in) {
			continue
		}
		catalog = append(catalog, in.Symbol)
		if s.filter.MaxSymbols > 0 && len(catalog) == s.filter.MaxSymbols {
			break
		}
	}

	s.log.Info(ctx, "catalog loaded",
		"instruments", len(instruments),
		"symbols", len(catalog))

	return catalog, nil
}

func (s *CatalogService) keep(in domain.Instrument) bool {
	if in.Symbol == "" {
		return false
	}
	if s.filter.TradingOnly && !in.IsTrading() {
		return false
	}
	if len(s.allow) > 0 {
		if _, ok := s.allow[strings.ToUpper(string(in.Symbol))]; !ok {
			return false
		}
	}
	if len(s.quotes) > 0 {
		if _, ok := s.quotes[strings.ToUpper(in.QuoteAsset)]; !ok {
			return false
		}
	}
	return true
}

func upperSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[strings.ToUpper(v)] = struct{}{}
		}
	}
	return set
}
