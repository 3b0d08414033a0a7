package command

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/zkmesh-go/internal/cli/config"
	"github.com/yndnr/zkmesh-go/internal/cli/repl"
)

// ShellCommand returns the shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Run commands interactively over one session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file; empty keeps history in memory",
				Value: config.DefaultHistoryPath(),
			},
		},
		Action: shellAction,
	}
}

// sharedSession keeps the shell's session open across commands.
type sharedSession struct {
	Session
}

func (sharedSession) Close(context.Context) error { return nil }

func shellAction(c *cli.Context) error {
	return withSession(c, func(s Session, flags *GlobalFlags) error {
		shared := sharedSession{s}
		open := Opener(func(*cli.Context, *GlobalFlags) (Session, error) {
			return shared, nil
		})

		base := []string{c.App.Name, "--config", c.String("config"), "--output", string(flags.Output)}
		if flags.Verbose {
			base = append(base, "--verbose")
		}

		commands := []string{"help"}
		for _, cmd := range newApp(open).Commands {
			commands = append(commands, cmd.Name)
		}

		exec := func(ctx context.Context, args []string) error {
			if args[0] == "shell" {
				return errors.New("already in a shell")
			}
			app := newApp(open)
			app.Reader = c.App.Reader
			app.Writer = c.App.Writer
			app.ErrWriter = c.App.ErrWriter
			app.ExitErrHandler = func(*cli.Context, error) {}
			return app.RunContext(ctx, append(base, args...))
		}

		history := repl.NewHistory(c.String("history"), repl.DefaultHistorySize)
		if err := history.Load(); err != nil {
			getLogger(c).Warn("load shell history", "error", err)
		}
		defer func() {
			if err := history.Save(); err != nil {
				getLogger(c).Warn("save shell history", "error", err)
			}
		}()

		r := repl.New(exec,
			repl.WithIO(c.App.Reader, c.App.Writer),
			repl.WithCompleter(repl.NewCompleter(commands...)),
			repl.WithHistory(history),
		)
		return r.Run(c.Context)
	})
}
