package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/filex"
	"github.com/dmitrijs2005/progresskeeper/internal/services"
)

// signalContext returns a context cancelled on SIGINT, SIGTERM or SIGQUIT.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancelFunc := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigs)
		cancelFunc()
	}
}

// printError writes err with a hint for the errors users can act on.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		fmt.Fprintln(w, "Run 'progress login' first.")
	case errors.Is(err, services.ErrBackupDisabled):
		fmt.Fprintln(w, "Set a backup bucket with -b.")
	}
}

// sourceURI turns a plain path into a file:// URI and leaves URIs alone.
func sourceURI(ref string) (string, error) {
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", ref, err)
	}
	return filex.PathToURI(abs), nil
}
