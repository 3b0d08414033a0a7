package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/zkmesh-go/internal/cli/output"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show client and session state",
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	return withSession(c, func(s Session, flags *GlobalFlags) error {
		return output.NewFormatter(flags.Output).Format(c.App.Writer, s.Status())
	})
}
