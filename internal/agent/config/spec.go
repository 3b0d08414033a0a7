package config

import "time"

// AgentConfig is the root configuration for zkmesh-agent.
type AgentConfig struct {
	Client ClientSection `koanf:"client"`
	Watch  WatchSection  `koanf:"watch"`
	Server ServerSection `koanf:"server"`
	Log    LogSection    `koanf:"log"`
}

// ClientSection configures the ZooKeeper client.
type ClientSection struct {
	// Servers is the ensemble, as host:port entries.
	Servers        []string      `koanf:"servers"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	// ConnectTimeout bounds the initial connect. Zero waits forever.
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	PoolSize        int           `koanf:"pool_size"`
	Reconnect       bool          `koanf:"reconnect"`
	AutoConnect     bool          `koanf:"auto_connect"`
	// ConnectRate caps dial attempts per second across the ensemble.
	ConnectRate float64     `koanf:"connect_rate"`
	Auth        AuthSection `koanf:"auth"`
	TLS         TLSSection  `koanf:"tls"`
}

// AuthSection configures session authentication, e.g. scheme "digest"
// with credentials "user:password".
type AuthSection struct {
	Scheme      string `koanf:"scheme"`
	Credentials string `koanf:"credentials"`
}

// TLSSection enables TLS to the ensemble's secure client port. Any field
// set turns TLS on. Without CAFile the system roots are trusted.
type TLSSection struct {
	CAFile     string `koanf:"ca_file"`
	CertFile   string `koanf:"cert_file"`
	KeyFile    string `koanf:"key_file"`
	ServerName string `koanf:"server_name"`
}

// WatchSection lists the znodes the agent watches.
type WatchSection struct {
	Paths []string `koanf:"paths"`
}

// ServerSection configures agent endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Admin AdminConfig `koanf:"admin"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// AdminConfig configures the local management socket. An empty Socket
// disables it.
type AdminConfig struct {
	Socket string `koanf:"socket"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
