package app

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/fd1az/triarb/business/pricing"

type fetchMetrics struct {
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	failures metric.Int64Counter
}

func newFetchMetrics(mp metric.MeterProvider) fetchMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	return fetchMetrics{
		attempts: counter(meter, "pricing_fetch_attempts_total", "Price fetch attempts sent to the source"),
		retries:  counter(meter, "pricing_fetch_retries_total", "Price fetch attempts that were retried"),
		failures: counter(meter, "pricing_fetch_failures_total", "Price fetches that exhausted every attempt"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}
