package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/zkmesh-go/internal/core/client"
	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/infra/buildinfo"
)

// StatusSource reports the client snapshot. Implemented by *client.Client.
type StatusSource interface {
	Status() client.Status
}

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Client StatusSource
	// Metrics serves /metrics. Nil answers 404.
	Metrics http.Handler
	Logger  *slog.Logger
	// GlobalRateLimit is the per-IP limit in requests/second (0 = off).
	GlobalRateLimit int
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:          slog.Default(),
		GlobalRateLimit: 100,
	}
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		handleReady(w, r, cfg.Client)
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cfg.Client.Status())
	})
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Order: Recover -> RequestID -> RateLimit -> AccessLog -> mux
	return Chain(mux,
		Recover(log),
		RequestID(),
		RateLimit(cfg.GlobalRateLimit),
		AccessLog(log),
	)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	info := buildinfo.Get()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "healthy",
		"version":    info.Version,
		"zk_version": info.ZKVersion,
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}

func handleReady(w http.ResponseWriter, _ *http.Request, src StatusSource) {
	st := src.Status()
	body := map[string]any{
		"state":         st.State,
		"session_state": st.Session,
		"time":          time.Now().UTC().Format(time.RFC3339),
	}
	if st.State == domain.StateRunning.String() && st.Connected {
		body["status"] = "ready"
		writeJSON(w, http.StatusOK, body)
		return
	}
	body["status"] = "not ready"
	writeJSON(w, http.StatusServiceUnavailable, body)
}
