package command

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/zkmesh-go/internal/cli/config"
	"github.com/yndnr/zkmesh-go/internal/cli/output"
	"github.com/yndnr/zkmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

const (
	metaConfig = "cliConfig"
	metaLogger = "logger"
	metaOpener = "opener"
)

// App creates the CLI application.
func App() *cli.App {
	return newApp(openSession)
}

func newApp(open Opener) *cli.App {
	return &cli.App{
		Name:    "zkmesh-cli",
		Usage:   "Inspect and watch ZooKeeper znodes",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			ListCommand(),
			StatCommand(),
			WatchCommand(),
			StatusCommand(),
			ShellCommand(),
		},
		Metadata: map[string]any{metaOpener: open},
		Before:   before,
	}
}

func before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	c.App.Metadata[metaConfig] = cfg

	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	log, err := logger.New(logger.Config{
		Level:  level,
		Format: "text",
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	c.App.Metadata[metaLogger] = log
	return nil
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "ZooKeeper server host:port (repeatable)",
			EnvVars: []string{"ZKMESH_SERVER"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Server profile from the CLI config file",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Connect timeout; 0 waits forever",
		},
		&cli.StringFlag{
			Name:    "auth",
			Usage:   "Digest credentials as user:password",
			EnvVars: []string{"ZKMESH_AUTH"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"ZKMESH_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags are the resolved global settings.
type GlobalFlags struct {
	Servers []string
	Timeout time.Duration
	Auth    string
	Output  output.Format
	Verbose bool
}

// ParseGlobalFlags resolves global flags: explicit flags, then the selected
// profile and config defaults, then built-in defaults.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := getConfig(c)

	profile, ok := cfg.Profile(c.String("profile"))
	if c.String("profile") != "" && !ok {
		return nil, fmt.Errorf("unknown profile %q", c.String("profile"))
	}

	flags := &GlobalFlags{
		Servers: profile.Servers,
		Timeout: cfg.DefaultTimeout,
		Auth:    profile.Auth,
		Verbose: c.Bool("verbose"),
	}
	if c.IsSet("server") {
		flags.Servers = c.StringSlice("server")
	}
	if len(flags.Servers) == 0 {
		flags.Servers = []string{config.DefaultServer}
	}
	if c.IsSet("timeout") {
		flags.Timeout = c.Duration("timeout")
	}
	if c.IsSet("auth") {
		flags.Auth = c.String("auth")
	}

	format := cfg.DefaultOutput
	if c.IsSet("output") {
		format = c.String("output")
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f
	return flags, nil
}

func getConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

func getLogger(c *cli.Context) logger.Logger {
	if l, ok := c.App.Metadata[metaLogger].(logger.Logger); ok {
		return l
	}
	return logger.Discard()
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
