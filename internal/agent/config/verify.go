package config

import (
	"errors"
	"fmt"
	"net"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *AgentConfig) error {
	if err := verifyClient(&cfg.Client); err != nil {
		return err
	}
	if err := verifyWatch(&cfg.Watch); err != nil {
		return err
	}
	if cfg.Server.HTTP.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Server.HTTP.Addr); err != nil {
			return fmt.Errorf("server.http.addr %q: %w", cfg.Server.HTTP.Addr, err)
		}
	}
	if sock := cfg.Server.Admin.Socket; sock != "" && !filepath.IsAbs(sock) {
		return fmt.Errorf("server.admin.socket %q is not absolute", sock)
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logger.ParseFormat(cfg.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}

func verifyClient(cfg *ClientSection) error {
	if len(cfg.Servers) == 0 {
		return errors.New("client.servers is required")
	}
	for _, s := range cfg.Servers {
		if err := verifyHostPort(s); err != nil {
			return fmt.Errorf("client.servers: %w", err)
		}
	}
	if cfg.PoolSize < 1 {
		return errors.New("client.pool_size must be at least 1")
	}
	if cfg.SessionTimeout < 0 || cfg.ConnectTimeout < 0 || cfg.ShutdownTimeout < 0 {
		return errors.New("client timeouts must not be negative")
	}
	if cfg.ConnectRate < 0 {
		return errors.New("client.connect_rate must not be negative")
	}
	if cfg.Auth.Scheme != "" && cfg.Auth.Credentials == "" {
		return fmt.Errorf("client.auth.credentials is required for scheme %q", cfg.Auth.Scheme)
	}
	if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		return errors.New("client.tls.cert_file and client.tls.key_file must be set together")
	}
	return nil
}

func verifyHostPort(s string) error {
	host, port, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%q: %w", s, err)
	}
	if host == "" {
		return fmt.Errorf("%q: missing host", s)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%q: invalid port", s)
	}
	return nil
}

func verifyWatch(cfg *WatchSection) error {
	for _, p := range cfg.Paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("watch.paths: %q is not absolute", p)
		}
		if p != "/" && (strings.HasSuffix(p, "/") || path.Clean(p) != p) {
			return fmt.Errorf("watch.paths: %q is not a clean znode path", p)
		}
	}
	return nil
}
