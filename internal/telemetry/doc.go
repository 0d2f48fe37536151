// Package telemetry wires OpenTelemetry tracing and metrics for tasklist.
//
// Telemetry is off by default. When enabled, spans and metrics are exported
// over OTLP (gRPC or HTTP/protobuf) and the providers are installed as the
// otel globals, so services that call otel.Tracer/otel.Meter pick them up.
// Failures to build an exporter degrade telemetry instead of failing startup.
package telemetry
