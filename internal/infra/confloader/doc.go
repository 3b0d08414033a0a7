// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables
//  3. Configuration file (YAML)
//  4. Default values (WithDefaults)
//
// Environment variables carry the ZKMESH_ prefix and separate nesting levels
// with a double underscore, so a single underscore can stay inside a key:
//
//	ZKMESH_CLIENT__SESSION_TIMEOUT=30s   ->  client.session_timeout
//	ZKMESH_CLIENT__SERVERS=a:2181,b:2181 ->  client.servers
//
// Watcher reports writes to the configuration file so the agent can apply
// reloadable settings without a restart.
package confloader
