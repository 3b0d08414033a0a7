package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// PrintfAdapter bridges libraries that log through a single
// Printf(format, args...) method into a structured logger. It satisfies
// zk.Logger and ants.Logger.
type PrintfAdapter struct {
	logger    *slog.Logger
	level     slog.Level
	component string
}

// NewPrintfAdapter returns an adapter writing every line at the given level
// tagged with component.
func NewPrintfAdapter(l Logger, level slog.Level, component string) *PrintfAdapter {
	if l == nil {
		l = Default()
	}
	return &PrintfAdapter{
		logger:    l.Slog(),
		level:     level,
		component: component,
	}
}

// Printf implements the Printf-style logger interface.
func (a *PrintfAdapter) Printf(format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	a.logger.Log(context.Background(), a.level, msg, "component", a.component)
}
