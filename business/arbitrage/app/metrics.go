package app

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/fd1az/triarb/business/arbitrage"

type scanMetrics struct {
	triples       metric.Int64Counter
	opportunities metric.Int64Counter
	duration      metric.Float64Histogram
}

func newScanMetrics(mp metric.MeterProvider) scanMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	m := scanMetrics{
		triples:       noop.Int64Counter{},
		opportunities: noop.Int64Counter{},
		duration:      noop.Float64Histogram{},
	}

	if c, err := meter.Int64Counter("arbitrage_triples_processed_total",
		metric.WithDescription("Triples evaluated, by outcome")); err == nil {
		m.triples = c
	}
	if c, err := meter.Int64Counter("arbitrage_opportunities_total",
		metric.WithDescription("Opportunities found")); err == nil {
		m.opportunities = c
	}
	if h, err := meter.Float64Histogram("arbitrage_scan_duration_seconds",
		metric.WithDescription("Wall time of a full scan"),
		metric.WithUnit("s")); err == nil {
		m.duration = h
	}
	return m
}
