package config

import (
	"github.com/yndnr/zkmesh-go/internal/core/client"
	"github.com/yndnr/zkmesh-go/internal/infra/tlsroots"
	"github.com/yndnr/zkmesh-go/internal/zkconn"
)

// ClientConfig maps the client section onto a client.Config. Logger,
// Observer and the injectable hooks are left for the caller.
func (c *AgentConfig) ClientConfig() client.Config {
	cc := client.DefaultConfig(c.Client.Servers...)
	cc.SessionTimeout = c.Client.SessionTimeout
	cc.Timeout = c.Client.ConnectTimeout
	cc.ShutdownTimeout = c.Client.ShutdownTimeout
	cc.PoolSize = c.Client.PoolSize
	cc.Reconnect = c.Client.Reconnect
	cc.AutoConnect = c.Client.AutoConnect
	cc.ConnectRate = c.Client.ConnectRate
	if c.Client.Auth.Scheme != "" {
		cc.Auth = &zkconn.Auth{
			Scheme:      c.Client.Auth.Scheme,
			Credentials: c.Client.Auth.Credentials,
		}
	}
	return cc
}

// TLSFiles returns the client TLS file set. Files.Enabled reports whether
// TLS is configured at all.
func (c *AgentConfig) TLSFiles() tlsroots.Files {
	return tlsroots.Files{
		CAFile:     c.Client.TLS.CAFile,
		CertFile:   c.Client.TLS.CertFile,
		KeyFile:    c.Client.TLS.KeyFile,
		ServerName: c.Client.TLS.ServerName,
	}
}
