// Copyright (c) Microsoft Corporation. All rights reserved.

package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const InstrumentationName = "github.com/neo-project/neo-debugger-sub001"

type TelemetrySystem struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// NewTelemetrySystem creates tracer and meter providers and installs them as the global ones.
// Exporters are only attached when diagnostics logging runs at debug level; otherwise
// spans and measurements are recorded and dropped.
func NewTelemetrySystem(logName string) (TelemetrySystem, error) {
	var tpOpts []sdktrace.TracerProviderOption
	var mpOpts []sdkmetric.Option

	exporters, exportersErr := newExporters(logName)
	if exportersErr != nil {
		return TelemetrySystem{}, exportersErr
	}
	if exporters.spans != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporters.spans))
	}
	if exporters.metrics != nil {
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporters.metrics)))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	mp := sdkmetric.NewMeterProvider(mpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return TelemetrySystem{
		TracerProvider: tp,
		MeterProvider:  mp,
	}, nil
}

func (ts TelemetrySystem) Shutdown(ctx context.Context) error {
	return errors.Join(
		ts.TracerProvider.Shutdown(ctx),
		ts.MeterProvider.Shutdown(ctx),
	)
}

func CallWithTelemetryNoResult(tracer trace.Tracer, spanName string, parentCtx context.Context, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	spanCtx, span := tracer.Start(parentCtx, spanName, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
