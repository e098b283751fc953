// Package tracing wraps OpenTelemetry so the engine, channel and dispatcher
// can open spans without importing the SDK directly. Without Init every span
// is a no-op.
package tracing
