// Package app wires configuration, logging, telemetry, services and
// HTTP routes into a runnable application.
package app
