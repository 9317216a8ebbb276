package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the review server",
		Long:  "Start the HTTP review store. API requests need a key created with 'rr keys create'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = settings.Port
			}
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (default: RR_PORT or 8080)")

	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := openServerDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	return web.NewServer(database, slog.Default()).ListenAndServe(ctx, port)
}
