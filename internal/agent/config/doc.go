// Package config defines the zkmesh-agent configuration.
//
//   - spec.go: AgentConfig struct definition
//   - default.go: default values, also exported as a koanf defaults map
//   - verify.go: validation (server addresses, timeouts, watch paths, auth)
//   - sanitize.go: log-safe copy with credentials masked
//
// Configuration is loaded via internal/infra/confloader from defaults, a
// YAML file, ZKMESH_ environment variables and flags.
package config
