package tlsroots

import (
	"crypto/x509"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

func commonName(t *testing.T, w *Watcher) string {
	t.Helper()
	cert, err := w.GetClientCertificate(nil)
	if err != nil {
		t.Fatalf("GetClientCertificate() error = %v", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}
	return leaf.Subject.CommonName
}

func TestNewWatcher(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	writeKeyPair(t, certFile, keyFile, "client-1")

	w, err := NewWatcher(certFile, keyFile, WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if got := commonName(t, w); got != "client-1" {
		t.Errorf("CommonName = %q, want client-1", got)
	}
	if w.Reloads() != 1 {
		t.Errorf("Reloads() = %d, want 1", w.Reloads())
	}
}

func TestNewWatcher_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewWatcher(filepath.Join(dir, "a.crt"), filepath.Join(dir, "a.key"), WithLogger(logger.Discard()))
	if err == nil {
		t.Fatal("NewWatcher() expected error for missing files")
	}
}

func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	writeKeyPair(t, certFile, keyFile, "client-1")

	w, err := NewWatcher(certFile, keyFile, WithLogger(logger.Discard()), WithDebounce(0))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()
	w.StartAsync()

	writeKeyPair(t, certFile, keyFile, "client-2")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if commonName(t, w) == "client-2" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("certificate not reloaded, CommonName = %q", commonName(t, w))
}

func TestWatcher_StopIdempotent(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	writeKeyPair(t, certFile, keyFile, "client")

	w, err := NewWatcher(certFile, keyFile, WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
