package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/config"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored API key",
		Long:  "Removes the stored API key from the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd)
		},
	}
}

func runLogout(cmd *cobra.Command) error {
	f, err := config.LoadFile()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if f.APIKey == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}

	f.APIKey = ""
	if err := config.SaveFile(f); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out. API key removed.")
	return nil
}
