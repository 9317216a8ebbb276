package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/reelreviews/internal/catalog"
	"github.com/evcraddock/reelreviews/internal/library"
	"github.com/evcraddock/reelreviews/internal/review"
	"github.com/evcraddock/reelreviews/internal/syncer"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printMovieSummary prints a single movie in text format.
func printMovieSummary(w io.Writer, m *catalog.Movie, favorite bool) {
	title := m.Title
	if favorite {
		title += " ♥"
	}
	fmt.Fprintf(w, "Movie #%d\n", m.ID)
	fmt.Fprintf(w, "  Title:    %s\n", title)
	if m.Year > 0 {
		fmt.Fprintf(w, "  Year:     %d\n", m.Year)
	}
	if m.Rating > 0 {
		fmt.Fprintf(w, "  Rating:   %.1f/10\n", m.Rating)
	}
	if m.Runtime > 0 {
		fmt.Fprintf(w, "  Runtime:  %d min\n", m.Runtime)
	}
	if len(m.Genres) > 0 {
		fmt.Fprintf(w, "  Genres:   %s\n", strings.Join(m.Genres, ", "))
	}
	if d := m.Description(); d != "" {
		fmt.Fprintf(w, "\n  %s\n", d)
	}
}

// printMovieTable prints a catalog page as a formatted table.
func printMovieTable(w io.Writer, page *catalog.Page) error {
	if len(page.Movies) == 0 {
		fmt.Fprintln(w, "No movies found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tRATING\tGENRES"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-----\t----\t------\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, m := range page.Movies {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\t%s\n",
			m.ID, truncate(m.Title, 40), m.Year, m.Rating, truncate(strings.Join(m.Genres, ", "), 30)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(w, "\nPage %d, %d of %d movies\n", page.PageNumber, len(page.Movies), page.MovieCount)
	return nil
}

// printEntries prints saved library entries.
func printEntries(w io.Writer, entries []library.Entry, empty string) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, empty)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\n", e.ID, truncate(e.Title, 40), e.Year, e.Rating); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// printReviewState prints the reviews for an item and, when degraded, the
// local data indicator.
func printReviewState(w io.Writer, st syncer.State) {
	if st.IsUsingFallback {
		detail := st.Detail
		if detail == "" {
			detail = "remote store unavailable"
		}
		fmt.Fprintf(w, "⚠ Showing locally saved data: %s\n\n", detail)
	}
	printReviewList(w, st.Reviews)
}

// printReviewList prints reviews in text format.
func printReviewList(w io.Writer, reviews []review.Review) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, "No reviews yet.")
		return
	}

	for _, r := range reviews {
		pending := ""
		if r.LocalOnly {
			pending = " (not yet synced)"
		}
		fmt.Fprintf(w, "[%s] %s %s%s\n  %s\n\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), formatRating(r.Rating), r.Author, pending, r.Comment)
	}
}

// formatRating returns a star representation of a rating (1-5).
func formatRating(rating int) string {
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
