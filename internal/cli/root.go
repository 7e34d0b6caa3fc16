package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/progresskeeper/internal/app"
	"github.com/dmitrijs2005/progresskeeper/internal/config"
)

// appFactory is a test seam for app.NewApp.
var appFactory = app.NewApp

// runtime carries state shared by all commands of one invocation. The
// interactive shell reuses it so the databases are opened once.
type runtime struct {
	cfg         *config.Config
	in          *bufio.Reader
	interactive bool
	logOut      io.Writer
	app         *app.App
}

func (r *runtime) open(ctx context.Context) (*app.App, error) {
	if r.app != nil {
		return r.app, nil
	}
	a, err := appFactory(ctx, r.cfg, r.logOut)
	if err != nil {
		return nil, err
	}
	r.app = a
	return a, nil
}

func (r *runtime) close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// withTimeout applies the configured per-operation deadline.
func (r *runtime) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.OperationTimeout)
}

// Execute loads the configuration from args and runs the selected command.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	r := &runtime{
		cfg:         cfg,
		in:          bufio.NewReader(in),
		interactive: stdinIsTerminal(in),
		logOut:      errOut,
	}
	defer r.close()

	root := newRootCommand(r, true)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func newRootCommand(r *runtime, withShell bool) *cobra.Command {
	root := &cobra.Command{
		Use:   "progress",
		Short: "Manage encrypted progress photos",
		Long: `Manage encrypted progress photos.

Global flags are read before the command runs:
  -c, --config  config file (JSON or YAML)
  -d            data directory
  -k            cache directory for decrypted previews
  -l            local SQLite DSN
  -r            remote PostgreSQL DSN
  -x            cipher for new blobs (keystream, xchacha20poly1305)
  -j            HS256 secret for session tokens
  -v            log level
  -t            operation timeout in seconds
  -b -g -e -u -p  S3 backup bucket, region, endpoint, access key, secret key`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCommand(r),
		newLogoutCommand(r),
		newWhoamiCommand(r),
		newStatusCommand(r),
		newListCommand(r),
		newAddCommand(r),
		newDeleteCommand(r),
		newSetCategoriesCommand(r),
		newRemoveCategoryCommand(r),
		newImportLegacyCommand(r),
		newClearPreviewsCommand(r),
		newBackupCommand(r),
		newRestoreCommand(r),
	)
	if withShell {
		root.AddCommand(newShellCommand(r))
	}

	allowUnknownFlags(root)
	return root
}

// allowUnknownFlags lets every command skip the global config flags.
func allowUnknownFlags(cmd *cobra.Command) {
	cmd.FParseErrWhitelist = cobra.FParseErrWhitelist{UnknownFlags: true}
	for _, c := range cmd.Commands() {
		allowUnknownFlags(c)
	}
}

// Main is the entry point used by cmd/progress.
func Main() int {
	ctx, stop := signalContext()
	defer stop()

	if err := Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}
