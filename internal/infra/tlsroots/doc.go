// Package tlsroots builds client TLS configuration for ensemble connections.
//
//   - roots.go: trusted CA pool from the system store and PEM files
//   - watcher.go: client key pair reloaded on file change via fsnotify
//   - client.go: tls.Config assembly from file paths
package tlsroots
