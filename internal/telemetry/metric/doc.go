// Package metric provides Prometheus metrics for zkmesh.
//
// Registry owns a private prometheus registry with the client lifecycle
// metrics. It is passed to the client, the callback pool and the event
// handler, each of which reports through a small observer interface.
// Collector adds values read from the live client at scrape time.
//
// Metrics are exposed at /metrics by the agent.
package metric
