package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/errs"
	"github.com/evcraddock/reelreviews/internal/syncer"
)

func newReviewsCmd() *cobra.Command {
	var refresh, watch bool

	cmd := &cobra.Command{
		Use:   "reviews <item-id>",
		Short: "Show reviews for a movie",
		Long:  "Show reviews for a catalog item. Falls back to locally saved reviews when the review server is unreachable. With --watch, keeps running, probing the server and printing changes until interrupted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviews(cmd, strings.TrimSpace(args[0]), refresh, watch)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "force a new read from the review server")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep syncing and print changes until interrupted")

	return cmd
}

func runReviews(cmd *cobra.Command, itemID string, refresh, watch bool) error {
	if itemID == "" {
		return fmt.Errorf("item id is required")
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

	s.engine.Get(ctx, itemID)
	if refresh {
		if _, err := s.engine.Refresh(ctx, itemID); err != nil && !errors.Is(err, errs.ErrOffline) {
			return err
		}
	}
	st := s.settle(ctx)

	out := cmd.OutOrStdout()
	if !watch {
		return writeReviewState(out, st)
	}

	if err := writeReviewState(out, st); err != nil {
		return err
	}
	last := stateKey(st)
	unsubscribe := s.engine.Subscribe(func(next syncer.State) {
		if !next.Settled() {
			return
		}
		key := stateKey(next)
		if key == last {
			return
		}
		last = key
		fmt.Fprintln(out, "---")
		if err := writeReviewState(out, next); err != nil {
			s.logger.Warn("printing reviews", "error", err)
		}
	})
	defer unsubscribe()

	go s.prober.Run(ctx)
	<-ctx.Done()
	return nil
}

// stateKey identifies what watch mode has already printed.
func stateKey(st syncer.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%t|%s|", st.IsUsingFallback, st.Detail)
	for _, r := range st.Reviews {
		b.WriteString(r.ID)
		b.WriteByte(',')
	}
	return b.String()
}

func writeReviewState(w io.Writer, st syncer.State) error {
	if isJSON() {
		return printJSON(w, st)
	}
	printReviewState(w, st)
	return nil
}
