package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/auth"
	"github.com/evcraddock/reelreviews/internal/config"
)

func newLoginCmd() *cobra.Command {
	var server, key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a review server API key",
		Long:  "Saves the review server URL and an API key to ~/.config/rr/config.yaml. Without --key the key is read from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, server, key)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or "+config.DefaultServerURL+")")
	cmd.Flags().StringVar(&key, "key", "", "API key (prompted if empty)")

	return cmd
}

func runLogin(cmd *cobra.Command, serverFlag, keyFlag string) error {
	key := keyFlag
	if key == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Paste your API key: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading input: %w", err)
		}
		key = line
	}

	key = strings.TrimSpace(key)
	if err := validateAPIKey(key); err != nil {
		return err
	}

	// Load the existing file to preserve other fields.
	f, err := config.LoadFile()
	if err != nil {
		f = config.File{}
	}

	f.APIKey = key
	if serverFlag != "" {
		f.ServerURL = strings.TrimRight(serverFlag, "/")
	}

	if err := config.SaveFile(f); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ API key saved. You're logged in!")
	return nil
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !strings.HasPrefix(key, auth.KeyPrefix) {
		return fmt.Errorf("invalid API key format (should start with %s)", auth.KeyPrefix)
	}
	return nil
}
