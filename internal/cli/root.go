// Package cli defines the cobra command tree for reelreviews.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/client"
	"github.com/evcraddock/reelreviews/internal/config"
	"github.com/evcraddock/reelreviews/internal/db"
	"github.com/evcraddock/reelreviews/internal/logging"
)

var (
	flagFormat   string
	flagCache    string
	flagServerDB string

	// settings is loaded before any command runs.
	settings *config.Config
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rr",
		Short:         "Browse movies and share reviews, online or off",
		Long:          "A tool to browse a movie catalog and read or write reviews. Reviews are cached locally so they stay readable and writable when the review server is unreachable.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings(cmd)
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagCache, "cache", "", "local cache database path (default: ~/.reelreviews/cache.db)")
	root.PersistentFlags().StringVar(&flagServerDB, "db", "", "review server database path, for serve and keys (default: ~/.reelreviews/reviews.db)")

	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newReviewsCmd(),
		newReviewCmd(),
		newRecentCmd(),
		newFavCmd(),
		newServeCmd(),
		newKeysCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// loadSettings reads configuration and sets up logging on stderr.
func loadSettings(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagCache != "" {
		cfg.CachePath = flagCache
	}
	if flagServerDB != "" {
		cfg.ServerDBPath = flagServerDB
	}
	if flagFormat != "text" && flagFormat != "json" {
		return fmt.Errorf("invalid --format %q (want text or json)", flagFormat)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.Setup(cmd.ErrOrStderr(), cfg.DevMode, level)

	settings = cfg
	return nil
}

// openServerDB opens the review server database using --db, RR_SERVER_DB,
// or the default path.
func openServerDB() (*sql.DB, error) {
	path := settings.ServerDBPath
	if path == "" {
		var err error
		path, err = db.DefaultServerPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the review server.
func newAPIClient() *client.Client {
	return client.New(settings.ServerURL, settings.APIKey,
		client.WithReadTimeout(settings.ReadTimeout),
		client.WithWriteTimeout(settings.WriteTimeout),
	)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		slog.Warn("closing database", "error", err)
	}
}

// warn prints a non-fatal problem to stderr.
func warn(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: "+format+"\n", args...)
}
