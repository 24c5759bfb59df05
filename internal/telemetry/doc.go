// Package telemetry wires the connection manager to Prometheus and builds
// the process logger.
package telemetry
