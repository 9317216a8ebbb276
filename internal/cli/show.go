package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/catalog"
	"github.com/evcraddock/reelreviews/internal/library"
	"github.com/evcraddock/reelreviews/internal/syncer"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <movie-id>",
		Short: "Show movie details and reviews",
		Long:  "Show catalog details for a movie with its reviews. The movie is added to the recently viewed list.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid movie ID: %s", args[0])
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSync(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	itemID := strconv.Itoa(id)
	s.engine.Get(ctx, itemID)

	movie, err := catalog.NewClient(settings.CatalogURL).Details(ctx, id)
	if err != nil {
		warn(cmd, "movie details unavailable: %v", err)
	} else if err := s.library.RecordView(library.EntryFrom(*movie)); err != nil {
		warn(cmd, "recording view: %v", err)
	}

	st := s.settle(ctx)

	favorite, err := s.library.IsFavorite(id)
	if err != nil {
		warn(cmd, "reading favorites: %v", err)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, struct {
			Movie    *catalog.Movie `json:"movie,omitempty"`
			Favorite bool           `json:"favorite"`
			Reviews  syncer.State   `json:"reviews"`
		}{movie, favorite, st})
	}

	if movie != nil {
		printMovieSummary(out, movie, favorite)
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Reviews (%d):\n", len(st.Reviews))
	printReviewState(out, st)
	return nil
}
