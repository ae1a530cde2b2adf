// Copyright (c) Microsoft Corporation. All rights reserved.

package telemetry

import (
	"go.opentelemetry.io/otel/metric"
)

func NewInt64Counter(meter metric.Meter, name string, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(
		name,
		metric.WithDescription(description),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		panic(err)
	}
	return counter
}

func NewFloat64Histogram(meter metric.Meter, name string, description string) metric.Float64Histogram {
	histogram, err := meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic(err)
	}
	return histogram
}
