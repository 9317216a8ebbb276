package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/catalog"
	"github.com/evcraddock/reelreviews/internal/library"
)

func newFavCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Manage favorite movies",
		Long:  "Add, remove, and list favorite movies. Favorites are stored on this device only.",
	}
	cmd.AddCommand(newFavAddCmd(), newFavRemoveCmd(), newFavListCmd())
	return cmd
}

func parseMovieID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie ID: %s", s)
	}
	return id, nil
}

func newFavAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <movie-id>",
		Short: "Add a movie to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			movie, err := catalog.NewClient(settings.CatalogURL).Details(ctx, id)
			if err != nil {
				return err
			}

			s, err := openLocal()
			if err != nil {
				return err
			}
			defer s.Close()

			added, err := s.library.AddFavorite(library.EntryFrom(*movie))
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites.\n", movie.Title)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already a favorite.\n", movie.Title)
			}
			return nil
		},
	}
}

func newFavRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <movie-id>",
		Aliases: []string{"remove"},
		Short:   "Remove a movie from favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}

			s, err := openLocal()
			if err != nil {
				return err
			}
			defer s.Close()

			removed, err := s.library.RemoveFavorite(id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("movie %d is not a favorite", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed movie #%d from favorites.\n", id)
			return nil
		},
	}
}

func newFavListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorite movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLocal()
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.library.Favorites()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			return printEntries(cmd.OutOrStdout(), entries, "No favorites yet.")
		},
	}
}
