package tlsroots

import (
	"crypto/tls"
	"errors"

	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

// Files names the PEM files of a client TLS setup. All fields are optional;
// CertFile and KeyFile go together.
type Files struct {
	CAFile     string
	CertFile   string
	KeyFile    string
	ServerName string
}

// Enabled reports whether any TLS setting is present.
func (f Files) Enabled() bool {
	return f.CAFile != "" || f.CertFile != "" || f.KeyFile != "" || f.ServerName != ""
}

// ClientConfig builds a client tls.Config. Without CAFile the system roots
// are trusted. With a key pair the returned Watcher serves it and must be
// started and stopped by the caller; otherwise the Watcher is nil.
func ClientConfig(f Files, l logger.Logger) (*tls.Config, *Watcher, error) {
	if (f.CertFile == "") != (f.KeyFile == "") {
		return nil, nil, errors.New("tlsroots: cert file and key file must be set together")
	}

	roots := NewPool()
	if f.CAFile != "" {
		roots = NewEmptyPool()
		if err := roots.AddCertFile(f.CAFile); err != nil {
			return nil, nil, err
		}
	}

	cfg := &tls.Config{
		RootCAs:    roots.Pool(),
		ServerName: f.ServerName,
		MinVersion: tls.VersionTLS12,
	}

	var w *Watcher
	if f.CertFile != "" {
		var err error
		w, err = NewWatcher(f.CertFile, f.KeyFile, WithLogger(l))
		if err != nil {
			return nil, nil, err
		}
		cfg.GetClientCertificate = w.GetClientCertificate
	}
	return cfg, w, nil
}
