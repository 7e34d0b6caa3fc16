package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
)

func newStatusCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show storage locations, cipher and session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}

			user, err := a.Session.CurrentUserID(ctx)
			if errors.Is(err, common.ErrUnauthenticated) {
				user = "(not logged in)"
			} else if err != nil {
				return err
			}

			blobDir, err := a.Blobs.Dir()
			if err != nil {
				return err
			}
			blobs, err := a.Blobs.List()
			if err != nil {
				return err
			}
			previewDir, err := a.Previews.Dir()
			if err != nil {
				return err
			}

			backup := "disabled"
			if r.cfg.S3.Enabled() {
				backup = "s3://" + r.cfg.S3.Bucket
			}
			remote := "local sqlite"
			if r.cfg.RemoteDSN != "" {
				remote = "postgres"
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "user\t%s\n", user)
			fmt.Fprintf(tw, "metadata\t%s\n", remote)
			fmt.Fprintf(tw, "cipher\t%s\n", a.Blobs.Cipher().Name())
			fmt.Fprintf(tw, "blobs\t%d in %s\n", len(blobs), blobDir)
			fmt.Fprintf(tw, "previews\t%s\n", previewDir)
			fmt.Fprintf(tw, "backup\t%s\n", backup)
			return tw.Flush()
		},
	}
}
