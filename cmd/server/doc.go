// Package main is the entry point for the Cradle blueprint backend.
//
// The server hosts the editing sessions behind the visual blueprint builder:
//   - plugin registry and starter templates
//   - session-scoped blueprint stores with a WebSocket snapshot stream
//   - JSON/YAML import and export
//   - recent blueprints, wallet users and GitHub sign-in
//   - the Maxxit proxy and the code generation hand-off
//
// Configuration:
//   - Environment variables, optionally read from a .env file
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -catalog ./catalog
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
