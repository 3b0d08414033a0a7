package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultPrompt is printed before every line.
const DefaultPrompt = "zkmesh> "

// ErrUnterminatedQuote is returned by Split for a quote left open.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// Executor runs one command line, already split into words.
type Executor func(ctx context.Context, args []string) error

// REPL is a read-eval-print loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets the prompt.
func WithPrompt(p string) Option {
	return func(r *REPL) { r.prompt = p }
}

// WithCompleter restricts the loop to the completer's commands.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) { r.completer = c }
}

// WithHistory records lines into h.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// New creates a REPL that hands each line to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:   os.Stdin,
		output:  os.Stdout,
		prompt:  DefaultPrompt,
		exec:    exec,
		history: NewHistory("", DefaultHistorySize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until EOF, exit, or ctx is done. Command errors are
// printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		reader := bufio.NewReader(r.input)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.output, r.prompt)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.output)
			return nil
		case err := <-readErr:
			fmt.Fprintln(r.output)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		args, err := Split(line)
		if err != nil {
			fmt.Fprintf(r.output, "error: %v\n", err)
			continue
		}

		switch args[0] {
		case "exit", "quit":
			return nil
		case "history":
			for i, entry := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
			}
			continue
		}

		if r.completer != nil && !r.completer.Known(args[0]) {
			fmt.Fprintf(r.output, "error: unknown command %q", args[0])
			if s := r.completer.Complete(args[0]); len(s) > 0 {
				fmt.Fprintf(r.output, ", did you mean: %s", strings.Join(s, ", "))
			}
			fmt.Fprintln(r.output)
			continue
		}

		if err := r.exec(ctx, args); err != nil {
			fmt.Fprintf(r.output, "error: %v\n", err)
		}
	}
}

// Split breaks a line into words. Single and double quotes group words;
// a backslash escapes the next character outside single quotes.
func Split(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(ch)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, ErrUnterminatedQuote
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
