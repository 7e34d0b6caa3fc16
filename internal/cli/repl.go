package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/progresskeeper/internal/services"
)

func newShellCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively (type 'help' for commands)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := r.open(ctx)
			if err != nil {
				return err
			}

			out := &lockedWriter{w: cmd.OutOrStdout()}
			unsubscribe := a.Photos.Subscribe(func(e services.Event) {
				fmt.Fprintf(out, "* photo %s %s\n", e.PhotoID, e.Kind)
			})
			defer unsubscribe()

			return runREPL(ctx, r, out, cmd.ErrOrStderr())
		},
	}
}

// runREPL reads one command per line from r.in and runs it through a fresh
// command tree sharing r. Command errors are printed and the loop goes on.
// It returns on EOF, "exit" or "quit", or when ctx is done.
func runREPL(ctx context.Context, r *runtime, out, errOut io.Writer) error {
	for {
		fmt.Fprint(out, "progress> ")

		line, err := r.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		parts := strings.Fields(line)
		if len(parts) == 0 {
			if eof {
				fmt.Fprintln(out)
				return nil
			}
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "shell":
			fmt.Fprintln(out, "Already in the shell")
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		root := newRootCommand(r, false)
		root.SetArgs(parts)
		root.SetOut(out)
		root.SetErr(errOut)
		if err := root.ExecuteContext(ctx); err != nil {
			printError(errOut, err)
		}

		if eof {
			fmt.Fprintln(out)
			return nil
		}
	}
}

// lockedWriter serializes writes from event handlers and the loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
