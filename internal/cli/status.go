package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/errs"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the review server, checks the stored API key, and shows where reviews are cached.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintf(out, "Server:  %s\n", settings.ServerURL)
	fmt.Fprintf(out, "Cache:   %s\n", cacheDescription())

	if settings.APIKey == "" {
		fmt.Fprintln(out, "API Key: not configured")
		fmt.Fprintln(out, "\nRun 'rr login' to authenticate.")
		return nil
	}

	prefix := settings.APIKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fmt.Fprintf(out, "API Key: %s…\n", prefix)

	api := newAPIClient()
	if err := api.Health(ctx); err != nil {
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%s)\n", errs.KindOf(err))
		return nil
	}

	// Listing any item exercises the key.
	_, err := api.List(ctx, "status-check")
	var re *errs.RemoteError
	switch {
	case err == nil:
		fmt.Fprintln(out, "Status:  ✓ connected and authenticated")
	case errors.As(err, &re) && re.Status == http.StatusUnauthorized:
		fmt.Fprintln(out, "Status:  ✗ invalid API key")
		fmt.Fprintln(out, "\nRun 'rr login' to re-authenticate.")
	default:
		fmt.Fprintf(out, "Status:  ✗ unexpected response (%v)\n", err)
	}

	return nil
}

func cacheDescription() string {
	if settings.CacheBackend == "redis" {
		return "redis at " + settings.RedisAddr
	}
	if settings.CachePath != "" {
		return "sqlite at " + settings.CachePath
	}
	return "sqlite at ~/.reelreviews/cache.db"
}
