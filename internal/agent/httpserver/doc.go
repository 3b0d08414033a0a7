// Package httpserver provides the zkmesh-agent HTTP server.
//
// Endpoints:
//
//   - GET /health: liveness, always 200 while the process serves
//   - GET /ready: 200 only when the client is running and holds a session
//   - GET /status: JSON snapshot of the client
//   - GET /metrics: Prometheus exposition
//
// Every route runs behind Recover, RequestID, RateLimit and AccessLog.
package httpserver
