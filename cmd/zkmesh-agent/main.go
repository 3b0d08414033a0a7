package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/zkmesh-go/internal/agent/adminsock"
	"github.com/yndnr/zkmesh-go/internal/agent/config"
	"github.com/yndnr/zkmesh-go/internal/agent/httpserver"
	"github.com/yndnr/zkmesh-go/internal/agent/watch"
	"github.com/yndnr/zkmesh-go/internal/core/client"
	"github.com/yndnr/zkmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/zkmesh-go/internal/infra/shutdown"
	"github.com/yndnr/zkmesh-go/internal/infra/tlsroots"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
	"github.com/yndnr/zkmesh-go/internal/telemetry/metric"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:    "zkmesh-agent",
		Usage:   "Hold a ZooKeeper session and watch znodes",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"ZKMESH_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "ZooKeeper server host:port (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Znode path to watch (repeatable)",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "admin-socket",
				Usage: "Unix socket for local management commands",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	loader := newLoader(c)
	flags := flagOverrides(c)
	cfg, err := loadConfig(loader, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting zkmesh-agent",
		"version", info.Version,
		"commit", info.Commit,
		"zk_version", info.ZKVersion,
		"config", loader.FilePath())
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	registry := metric.NewRegistry()

	shutdownHandler := shutdown.NewHandler(cfg.Client.ShutdownTimeout+config.DefaultShutdownTimeout, log)

	clientCfg := cfg.ClientConfig()
	clientCfg.Logger = log
	clientCfg.Observer = registry

	if files := cfg.TLSFiles(); files.Enabled() {
		tlsCfg, certWatcher, err := tlsroots.ClientConfig(files, log)
		if err != nil {
			return fmt.Errorf("init tls: %w", err)
		}
		clientCfg.TLS = tlsCfg
		if certWatcher != nil {
			certWatcher.StartAsync()
			shutdownHandler.OnShutdown("tls-watcher", func(context.Context) error {
				return certWatcher.Stop()
			})
		}
		log.Info("tls enabled", "ca_file", files.CAFile, "client_cert", files.CertFile != "")
	}

	zkClient, err := client.New(clientCfg)
	if err != nil {
		_ = shutdownHandler.Shutdown()
		return fmt.Errorf("init client: %w", err)
	}
	registry.MustRegister(metric.NewCollector(zkClient))

	// Hooks run in reverse order: HTTP first, the client and its
	// certificate watcher last.
	shutdownHandler.OnShutdown("client", func(ctx context.Context) error {
		log.Info("closing client")
		return zkClient.Close(ctx)
	})

	watcher := watch.New(zkClient, cfg.Watch.Paths, log)
	watcher.Start()
	shutdownHandler.OnShutdown("watch", func(context.Context) error {
		watcher.Stop()
		return nil
	})

	if path := loader.FilePath(); path != "" {
		stop, err := watchConfig(loader, flags, path, log)
		if err != nil {
			log.Warn("config file watch disabled", "path", path, "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
				return stop()
			})
		}
	}

	if err := startHTTP(cfg, zkClient, registry, shutdownHandler, log); err != nil {
		_ = shutdownHandler.Shutdown()
		return err
	}
	if err := startAdmin(cfg, zkClient, shutdownHandler, log); err != nil {
		_ = shutdownHandler.Shutdown()
		return err
	}

	// A client closed from a callback stops the agent too.
	go func() {
		select {
		case <-zkClient.Done():
			log.Warn("client closed, stopping agent")
			shutdownHandler.Trigger()
		case <-shutdownHandler.Done():
		}
	}()

	log.Info("agent started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(c.Context); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("agent stopped gracefully")
	return nil
}

func startHTTP(cfg *config.AgentConfig, zkClient *client.Client, registry *metric.Registry, h *shutdown.Handler, log logger.Logger) error {
	if cfg.Server.HTTP.Addr == "" {
		log.Info("HTTP server disabled")
		return nil
	}

	router := httpserver.DefaultRouterConfig()
	router.Client = zkClient
	router.Metrics = registry.Handler()
	router.Logger = log.Slog()
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(router))

	listener, err := net.Listen("tcp", cfg.Server.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err)
	}
	h.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", listener.Addr().String())
		if err := httpServer.Serve(listener); err != nil {
			log.Error("HTTP server error", "error", err)
			h.Trigger()
		}
	}()
	return nil
}

func startAdmin(cfg *config.AgentConfig, zkClient *client.Client, h *shutdown.Handler, log logger.Logger) error {
	path := cfg.Server.Admin.Socket
	if path == "" {
		return nil
	}

	admin := adminsock.New(path, adminsock.NewHandler(zkClient, h.Trigger), log)
	listener, err := admin.Listen()
	if err != nil {
		return fmt.Errorf("admin socket %s: %w", path, err)
	}
	h.OnShutdown("admin", func(ctx context.Context) error {
		return admin.Shutdown(ctx)
	})

	go func() {
		log.Info("admin socket listening", "path", path)
		if err := admin.Serve(listener); err != nil {
			log.Error("admin socket error", "error", err)
		}
	}()
	return nil
}
