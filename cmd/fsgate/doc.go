// Package main is the entry point for the fsgate filesystem gateway.
//
// fsgate speaks newline-delimited JSON-RPC on stdin/stdout and exposes
// a fixed catalog of filesystem tools to a tool-calling client. Every
// path is validated against a configured allow-list before it reaches
// a filesystem primitive, and all mutating operations are gated behind
// a single write-enable flag.
//
// Configuration:
//   - Environment variables (FSGATE_*)
//   - Optional YAML config file (-config)
//   - CLI flags (override file and env)
//
// Usage:
//
//	# Read-only gateway over two roots
//	./fsgate -allowed-dir /data -allowed-dir /srv/shared
//
//	# Writable gateway with a larger read cap
//	./fsgate -allowed-dir /data -write -max-file-size 64
//
// Logs go to stderr; stdout carries only protocol frames.
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
