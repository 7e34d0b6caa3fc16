package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/progresskeeper/internal/app"
	"github.com/dmitrijs2005/progresskeeper/internal/services"
)

func newBackupCommand(r *runtime) *cobra.Command {
	return newTransferCommand(r, "backup", "Upload encrypted blobs to the backup bucket",
		func(ctx context.Context, a *app.App) (services.BackupResult, error) { return a.Backup.Backup(ctx) })
}

func newRestoreCommand(r *runtime) *cobra.Command {
	return newTransferCommand(r, "restore", "Download missing blobs from the backup bucket",
		func(ctx context.Context, a *app.App) (services.BackupResult, error) { return a.Backup.Restore(ctx) })
}

func newTransferCommand(r *runtime, use, short string, run func(context.Context, *app.App) (services.BackupResult, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			res, err := run(ctx, a)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transferred %d, skipped %d\n", res.Transferred, res.Skipped)
			return nil
		},
	}
}
