package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5090"
	DefaultSessionTimeout  = 10 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPoolSize        = 1
	DefaultConnectRate     = 5.0

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default agent configuration.
func Default() *AgentConfig {
	return &AgentConfig{
		Client: ClientSection{
			SessionTimeout:  DefaultSessionTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			PoolSize:        DefaultPoolSize,
			Reconnect:       true,
			AutoConnect:     true,
			ConnectRate:     DefaultConnectRate,
		},
		Server: ServerSection{
			HTTP: HTTPConfig{Addr: DefaultHTTPAddr},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultMap returns the defaults as dotted koanf keys, for
// confloader.WithDefaults.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"client.session_timeout":  d.Client.SessionTimeout.String(),
		"client.shutdown_timeout": d.Client.ShutdownTimeout.String(),
		"client.pool_size":        d.Client.PoolSize,
		"client.reconnect":        d.Client.Reconnect,
		"client.auto_connect":     d.Client.AutoConnect,
		"client.connect_rate":     d.Client.ConnectRate,
		"server.http.addr":        d.Server.HTTP.Addr,
		"log.level":               d.Log.Level,
		"log.format":              d.Log.Format,
	}
}
