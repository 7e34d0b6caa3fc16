package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/progresskeeper/internal/models"
)

func newListCommand(r *runtime) *cobra.Command {
	var category string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "List photos, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			list, err := a.Photos.ListPhotos(ctx, category)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			return printPhotos(cmd.OutOrStdout(), list)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only photos in this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printPhotos(w io.Writer, list []models.Photo) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No photos")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTAKEN\tSIZE\tCATEGORIES\tURI")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\t%s\n",
			p.ID,
			time.UnixMilli(p.Timestamp).Format(time.RFC3339),
			p.Width, p.Height,
			strings.Join(p.Categories, ","),
			p.URI,
		)
	}
	return tw.Flush()
}

func newAddCommand(r *runtime) *cobra.Command {
	var categories []string
	var width, height int

	cmd := &cobra.Command{
		Use:   "add <path-or-uri>",
		Short: "Encrypt and save a photo",
		Long: `Encrypt and save a photo.

A local file is encrypted into the data directory and removed afterwards.
http(s) URLs are downloaded and data: URIs decoded before encryption.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			uri, err := sourceURI(args[0])
			if err != nil {
				return err
			}

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			p, err := a.Photos.SavePhoto(ctx, uri, categories, width, height)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved photo %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&categories, "category", nil, "category id (repeatable)")
	cmd.Flags().IntVar(&width, "width", 0, "width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "height in pixels")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newDeleteCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete photos and their local files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := a.Photos.DeletePhoto(ctx, id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted photo %s\n", id)
			}
			return nil
		},
	}
}

func newSetCategoriesCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "set-categories <id> [category-id...]",
		Short: "Replace the categories of a photo",
		Long: `Replace the categories of a photo.

A photo left without a numeric category is deleted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			if err := a.Photos.UpdatePhotoCategories(ctx, args[0], args[1:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated photo %s\n", args[0])
			return nil
		},
	}
}

func newRemoveCategoryCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-category <category-id>",
		Short: "Remove a category from every photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			if err := a.Photos.RemoveCategoryFromPhotos(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed category %s\n", args[0])
			return nil
		},
	}
}

func newImportLegacyCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <file|->",
		Short: "Import an export of the old on-device image list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			var in io.Reader = r.in
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			res, err := a.Photos.ImportLegacy(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, skipped %d\n", res.Imported, res.Skipped)
			return nil
		},
	}
}

func newClearPreviewsCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-previews",
		Short: "Delete all decrypted previews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			if err := a.Previews.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Previews cleared")
			return nil
		},
	}
}
