package config

import (
	"strings"

	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// Digest credentials keep the user part: "alice:s3cret" becomes "alice:***".
// Credentials of any other scheme are masked entirely.
func Sanitize(cfg *AgentConfig) *AgentConfig {
	sanitized := *cfg
	sanitized.Client.Servers = append([]string(nil), cfg.Client.Servers...)
	sanitized.Watch.Paths = append([]string(nil), cfg.Watch.Paths...)

	auth := &sanitized.Client.Auth
	if auth.Credentials != "" {
		prefix := auth.Scheme + ":"
		masked := logger.RedactString(prefix + auth.Credentials)
		if masked == prefix+auth.Credentials {
			auth.Credentials = "***"
		} else {
			auth.Credentials = strings.TrimPrefix(masked, prefix)
		}
	}
	return &sanitized
}
