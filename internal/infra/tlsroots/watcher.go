package tlsroots

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

// Watcher holds a client key pair and reloads it when either file changes,
// so certificate rotation does not need a restart. New connections pick up
// the new pair; established ones keep theirs.
type Watcher struct {
	certFile string
	keyFile  string
	logger   logger.Logger
	debounce time.Duration

	mu   sync.RWMutex
	cert *tls.Certificate

	reloads    atomic.Int64
	reloadMu   sync.Mutex
	lastReload time.Time

	fs       *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets the minimum interval between reloads.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher loads the key pair and prepares to watch it. Watching starts
// with Start or StartAsync.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	certAbs, err := filepath.Abs(certFile)
	if err != nil {
		return nil, err
	}
	keyAbs, err := filepath.Abs(keyFile)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		certFile: certAbs,
		keyFile:  keyAbs,
		logger:   logger.Default(),
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "tlsroots")

	if err := w.reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	for _, dir := range uniqueDirs(certAbs, keyAbs) {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}
	w.fs = fs
	return w, nil
}

func uniqueDirs(files ...string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, f := range files {
		d := filepath.Dir(f)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Start processes file events until Stop is called.
func (w *Watcher) Start() {
	w.logger.Info("certificate watcher started", "cert_file", w.certFile, "key_file", w.keyFile)

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Name != w.certFile && event.Name != w.keyFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("certificate file changed", "file", event.Name, "op", event.Op.String())
			if err := w.debouncedReload(); err != nil {
				w.logger.Error("certificate reload failed", "error", err, "cert_file", w.certFile)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("certificate watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// StartAsync starts watching in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop stops watching. It is idempotent.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

// GetClientCertificate returns the current key pair.
// It implements tls.Config.GetClientCertificate.
func (w *Watcher) GetClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert, nil
}

// Reloads returns how many times the key pair was loaded.
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

func (w *Watcher) debouncedReload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	if time.Since(w.lastReload) < w.debounce {
		return nil
	}
	// Give the writer time to finish both files.
	time.Sleep(100 * time.Millisecond)
	w.lastReload = time.Now()
	return w.reload()
}

func (w *Watcher) reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	w.mu.Lock()
	w.cert = &cert
	w.mu.Unlock()

	w.reloads.Add(1)
	w.logger.Info("certificate loaded", "cert_file", w.certFile)
	return nil
}
