package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/zk"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/zkmesh-go/internal/agent/watch"
	"github.com/yndnr/zkmesh-go/internal/cli/output"
	"github.com/yndnr/zkmesh-go/internal/core/client"
	"github.com/yndnr/zkmesh-go/internal/zkconn"
)

// closeTimeout bounds how long a command waits for its client to close.
const closeTimeout = 5 * time.Second

// Session is the client surface commands use. Implemented by *client.Client.
type Session interface {
	watch.Client
	Status() client.Status
	Done() <-chan struct{}
	Close(ctx context.Context) error
}

// Opener connects a Session for one command.
type Opener func(c *cli.Context, flags *GlobalFlags) (Session, error)

func openSession(c *cli.Context, flags *GlobalFlags) (Session, error) {
	cfg := client.DefaultConfig(flags.Servers...)
	cfg.Timeout = flags.Timeout
	cfg.Reconnect = true
	cfg.Logger = getLogger(c)
	if flags.Auth != "" {
		cfg.Auth = &zkconn.Auth{Scheme: "digest", Credentials: flags.Auth}
	}

	var spin *output.Spinner
	if flags.Output == output.FormatTable && !flags.Verbose {
		spin = output.NewSpinner(c.App.ErrWriter, "connecting to "+strings.Join(flags.Servers, ","))
		spin.Start()
	}

	cl, err := client.New(cfg)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", strings.Join(flags.Servers, ","), err)
	}
	return cl, nil
}

// withSession opens a session, runs fn and closes the session.
func withSession(c *cli.Context, fn func(s Session, flags *GlobalFlags) error) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	open, ok := c.App.Metadata[metaOpener].(Opener)
	if !ok {
		open = openSession
	}

	s, err := open(c, flags)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			getLogger(c).Warn("close client", "error", err)
		}
	}()
	return fn(s, flags)
}

func requirePath(c *cli.Context) (string, error) {
	path := c.Args().First()
	if path == "" {
		return "", fmt.Errorf("%s: PATH is required", c.Command.Name)
	}
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("%s: path %q must be absolute", c.Command.Name, path)
	}
	return path, nil
}

// nodeError turns ensemble errors into messages naming the path.
func nodeError(path string, err error) error {
	switch {
	case errors.Is(err, zk.ErrNoNode):
		return fmt.Errorf("node %s does not exist", path)
	case errors.Is(err, zk.ErrNoAuth):
		return fmt.Errorf("not authorized to read %s", path)
	default:
		return err
	}
}
