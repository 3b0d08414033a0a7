package adminsock

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Shopify/zk"

	"github.com/yndnr/zkmesh-go/internal/core/client"
)

// defaultReopenTimeout bounds a reopen without an explicit timeout.
const defaultReopenTimeout = 10 * time.Second

// Controller is the client surface the socket exposes.
type Controller interface {
	Status() client.Status
	Reopen(timeout time.Duration) (zk.State, error)
}

// Handler executes management commands.
type Handler struct {
	ctrl     Controller
	shutdown func()
}

// NewHandler creates a Handler. shutdown is called by the shutdown command.
func NewHandler(ctrl Controller, shutdown func()) *Handler {
	return &Handler{ctrl: ctrl, shutdown: shutdown}
}

// Execute runs one command line and writes a single reply line.
func (h *Handler) Execute(w io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	var err error
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "status":
		err = json.NewEncoder(w).Encode(h.ctrl.Status())
	case "reopen":
		err = h.reopen(w, args)
	case "shutdown":
		_, err = io.WriteString(w, "ok\n")
		h.shutdown()
	case "help":
		_, err = io.WriteString(w, "commands: status, reopen [timeout], shutdown, help\n")
	default:
		_, err = fmt.Fprintf(w, "error: unknown command %q\n", cmd)
	}
	return err
}

func (h *Handler) reopen(w io.Writer, args []string) error {
	timeout := defaultReopenTimeout
	if len(args) > 0 {
		d, err := time.ParseDuration(args[0])
		if err != nil || d < 0 {
			_, werr := fmt.Fprintf(w, "error: invalid timeout %q\n", args[0])
			return werr
		}
		timeout = d
	}

	state, err := h.ctrl.Reopen(timeout)
	if err != nil {
		_, werr := fmt.Fprintf(w, "error: %v\n", err)
		return werr
	}
	_, err = fmt.Fprintf(w, "ok %s\n", state)
	return err
}
