// Copyright (c) Microsoft Corporation. All rights reserved.

package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zapcore"

	"github.com/neo-project/neo-debugger-sub001/pkg/logger"
)

type exporters struct {
	spans   sdktrace.SpanExporter
	metrics sdkmetric.Exporter
}

func newExporters(logName string) (exporters, error) {
	logLevel, levelErr := logger.GetDiagnosticsLogLevel()
	if levelErr != nil || logLevel > zapcore.DebugLevel {
		return exporters{}, nil
	}

	logFolder, folderErr := logger.EnsureDiagnosticsLogsFolder()
	if folderErr != nil {
		return exporters{}, folderErr
	}

	telemetryFileName := fmt.Sprintf("telemetry-%s-%d-%d.json", logName, time.Now().Unix(), os.Getpid())
	telemetryFile, openErr := os.OpenFile(filepath.Join(logFolder, telemetryFileName), os.O_RDWR|os.O_CREATE|os.O_EXCL|os.O_TRUNC, 0600)
	if openErr != nil {
		return exporters{}, openErr
	}

	spanExp, spanErr := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(telemetryFile))
	if spanErr != nil {
		return exporters{}, spanErr
	}

	metricExp, metricErr := stdoutmetric.New(stdoutmetric.WithPrettyPrint(), stdoutmetric.WithWriter(telemetryFile))
	if metricErr != nil {
		return exporters{}, metricErr
	}

	return exporters{spans: spanExp, metrics: metricExp}, nil
}
