package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/review"
	"github.com/evcraddock/reelreviews/internal/syncer"
)

func newReviewCmd() *cobra.Command {
	var rating int
	var author string

	cmd := &cobra.Command{
		Use:   "review <item-id> <comment>",
		Short: "Write a review",
		Long:  "Write a review for a catalog item. The review is saved locally first and sent to the review server when it is reachable.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := review.Draft{
				ItemID:  args[0],
				Rating:  rating,
				Comment: strings.Join(args[1:], " "),
				Author:  author,
			}
			return runReview(cmd, d)
		},
	}

	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&author, "author", "", "your name")
	_ = cmd.MarkFlagRequired("rating")
	_ = cmd.MarkFlagRequired("author")

	return cmd
}

func runReview(cmd *cobra.Command, d review.Draft) error {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return err
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

	outcome := make(chan syncer.Event, 1)
	off := s.engine.OnEvent(func(ev syncer.Event) {
		if ev.ItemID != d.ItemID {
			return
		}
		switch ev.Kind {
		case syncer.EventWriteSucceeded, syncer.EventWriteSavedLocallyOnly:
			select {
			case outcome <- ev:
			default:
			}
		}
	})
	defer off()

	s.engine.Get(ctx, d.ItemID)
	s.settle(ctx)

	opt, err := s.engine.Submit(ctx, d.ItemID, d)
	if err != nil {
		return err
	}
	s.settle(ctx)

	saved := opt
	synced := false
	select {
	case ev := <-outcome:
		if ev.Kind == syncer.EventWriteSucceeded {
			saved = ev.Review
			synced = true
		}
	default:
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, saved)
	}
	if synced {
		fmt.Fprintf(out, "Review %s added.\n", saved.ID)
	} else {
		fmt.Fprintf(out, "Review %s saved on this device only.\n", saved.ID)
	}
	fmt.Fprintf(out, "  %s %s\n", formatRating(saved.Rating), saved.Comment)
	return nil
}
