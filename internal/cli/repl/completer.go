package repl

import (
	"slices"
	"strings"
)

// Builtins are handled by the loop itself.
var Builtins = []string{"exit", "history", "quit"}

// Completer knows the commands a shell accepts.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer for commands plus the builtins.
func NewCompleter(commands ...string) *Completer {
	all := append(slices.Clone(commands), Builtins...)
	slices.Sort(all)
	return &Completer{commands: slices.Compact(all)}
}

// Known reports whether name is a command.
func (c *Completer) Known(name string) bool {
	_, ok := slices.BinarySearch(c.commands, name)
	return ok
}

// Complete returns the commands starting with prefix, in order.
func (c *Completer) Complete(prefix string) []string {
	var out []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}

// Commands returns every known command.
func (c *Completer) Commands() []string {
	return slices.Clone(c.commands)
}
