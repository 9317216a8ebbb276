package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/catalog"
)

func newListCmd() *cobra.Command {
	var opts catalog.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse the movie catalog",
		Long:  "List movies from the catalog, optionally filtered by search term or genre.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Query, "query", "", "search term")
	cmd.Flags().StringVar(&opts.Genre, "genre", "", "genre filter")
	cmd.Flags().StringVar(&opts.Sort, "sort", "date_added", "sort field (title|year|rating|date_added|download_count)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "movies per page (1-50)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")

	return cmd
}

func runList(cmd *cobra.Command, opts catalog.ListOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	page, err := catalog.NewClient(settings.CatalogURL).List(ctx, opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), page)
	}
	return printMovieTable(cmd.OutOrStdout(), page)
}
