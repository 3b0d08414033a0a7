// Package repl implements the interactive shell of zkmesh-cli.
//
//   - repl.go: read-eval-print loop and line splitting
//   - completer.go: known commands and prefix suggestions
//   - history.go: command history persisted to a file
package repl
