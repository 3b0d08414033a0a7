package main

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/zkmesh-go/internal/agent/config"
	"github.com/yndnr/zkmesh-go/internal/infra/confloader"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

func newLoader(c *cli.Context) *confloader.Loader {
	opts := []confloader.Option{confloader.WithDefaults(config.DefaultMap())}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	return confloader.NewLoader(opts...)
}

// flagOverrides returns the flags that were set, as koanf keys.
func flagOverrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	if c.IsSet("server") {
		m["client.servers"] = c.StringSlice("server")
	}
	if c.IsSet("watch") {
		m["watch.paths"] = c.StringSlice("watch")
	}
	if c.IsSet("http-addr") {
		m["server.http.addr"] = c.String("http-addr")
	}
	if c.IsSet("admin-socket") {
		m["server.admin.socket"] = c.String("admin-socket")
	}
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	return m
}

// loadConfig layers defaults, file, env and flags, then validates.
func loadConfig(loader *confloader.Loader, flags map[string]any) (*config.AgentConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := applyFlags(loader, flags, cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(loader *confloader.Loader, flags map[string]any, cfg *config.AgentConfig) error {
	if len(flags) == 0 {
		return nil
	}
	if err := loader.LoadMap(flags); err != nil {
		return err
	}
	return loader.Unmarshal(cfg)
}

func initLogger(cfg *config.AgentConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// watchConfig applies log.level from the config file whenever it changes.
// Other keys need a restart.
func watchConfig(loader *confloader.Loader, flags map[string]any, path string, log logger.Logger) (func() error, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}
	w.OnChange(func(string) {
		next := config.Default()
		err := loader.Reload(next)
		if err == nil {
			err = applyFlags(loader, flags, next)
		}
		if err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if next.Log.Level != "" && next.Log.Level != logger.GetLevel() {
			if err := logger.SetLevel(next.Log.Level); err != nil {
				log.Warn("config reload ignored log level", "error", err)
				return
			}
			log.Info("log level changed", "level", next.Log.Level)
		}
	})
	w.StartAsync()
	return w.Stop, nil
}
