// Package logger provides structured logging for zkmesh.
//
// This package wraps log/slog:
//
//   - logger.go: logger configuration, global level and default logger
//   - context.go: context-aware logging with request and client IDs
//   - redact.go: credential redaction
//   - printf.go: Printf-style adapters for third-party libraries
//
// Libraries that only accept a Printf logger (the ZooKeeper client and the
// callback pool) are bridged through PrintfAdapter so every line ends up in
// the same structured stream.
package logger
