// Package main provides the entry point for zkmesh-agent.
//
// The agent holds one ZooKeeper session, keeps watches armed on the
// configured znodes and logs their events. It serves:
//
//   - GET /health and /ready for probes
//   - GET /status with the client snapshot
//   - GET /metrics for Prometheus
//
// With server.admin.socket set it also accepts status, reopen and shutdown
// on a local Unix socket:
//
//	echo "reopen 5s" | nc -U /run/zkmesh/agent.sock
//
// Usage:
//
//	zkmesh-agent --config /etc/zkmesh/agent.yaml
//	zkmesh-agent --server zk1:2181 --server zk2:2181 --watch /services/api
//
// Edits to the config file apply log.level without a restart.
package main
