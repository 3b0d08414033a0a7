package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/zkmesh-go/internal/agent/watch"
	"github.com/yndnr/zkmesh-go/internal/cli/output"
	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/infra/shutdown"
)

// WatchEvent is one printed znode event.
type WatchEvent struct {
	Time   time.Time `json:"time" yaml:"time"`
	Kind   string    `json:"kind" yaml:"kind"`
	Path   string    `json:"path" yaml:"path"`
	Server string    `json:"server,omitempty" yaml:"server,omitempty"`
}

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Print events on a znode until interrupted",
		ArgsUsage: "PATH",
		Action:    watchAction,
	}
}

func watchAction(c *cli.Context) error {
	path, err := requirePath(c)
	if err != nil {
		return err
	}
	log := getLogger(c)

	return withSession(c, func(s Session, flags *GlobalFlags) error {
		p := &eventPrinter{w: c.App.Writer, format: flags.Output}
		w := watch.New(s, []string{path}, log, watch.OnEvent(p.print))

		h := shutdown.NewHandler(closeTimeout, log)
		h.OnShutdown("watch", func(context.Context) error {
			w.Stop()
			return nil
		})
		w.Start()

		go func() {
			select {
			case <-s.Done():
				h.Trigger()
			case <-h.Done():
			}
		}()
		return h.Wait(c.Context)
	})
}

// eventPrinter writes one line (table, json) or one document (yaml) per
// event. Callbacks may run on several workers.
type eventPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	format output.Format
	rows   int
}

func (p *eventPrinter) print(_ context.Context, ev domain.Event) {
	we := WatchEvent{
		Time:   time.Now().UTC(),
		Kind:   ev.Kind.String(),
		Path:   ev.Path,
		Server: ev.Server,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.format {
	case output.FormatJSON:
		_ = json.NewEncoder(p.w).Encode(we)
	case output.FormatYAML:
		fmt.Fprintln(p.w, "---")
		_ = output.NewFormatter(output.FormatYAML).Format(p.w, we)
	default:
		if p.rows == 0 {
			fmt.Fprintln(p.w, "TIME\tKIND\tPATH")
		}
		fmt.Fprintf(p.w, "%s\t%s\t%s\n", we.Time.Format(time.RFC3339), we.Kind, we.Path)
	}
	p.rows++
}
