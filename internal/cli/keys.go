package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/auth"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage review server API keys",
		Long:  "Create, list, and revoke API keys in the review server database. Run these on the server host.",
	}
	cmd.AddCommand(newKeysCreateCmd(), newKeysListCmd(), newKeysRevokeCmd())
	return cmd
}

func withKeyStore(fn func(*auth.APIKeyStore) error) error {
	database, err := openServerDB()
	if err != nil {
		return err
	}
	defer closeDB(database)
	return fn(auth.NewAPIKeyStore(database))
}

func newKeysCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeyStore(func(store *auth.APIKeyStore) error {
				raw, key, err := store.Create(strings.Join(args, " "))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if isJSON() {
					return printJSON(out, map[string]any{"key": raw, "id": key.ID, "name": key.Name})
				}
				fmt.Fprintf(out, "Created key #%d (%s)\n\n  %s\n\n", key.ID, key.Name, raw)
				fmt.Fprintln(out, "Store it now; it will not be shown again.")
				return nil
			})
		},
	}
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeyStore(func(store *auth.APIKeyStore) error {
				keys, err := store.List()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if isJSON() {
					return printJSON(out, keys)
				}
				if len(keys) == 0 {
					fmt.Fprintln(out, "No API keys.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				if _, err := fmt.Fprintln(w, "ID\tNAME\tPREFIX\tCREATED\tLAST USED"); err != nil {
					return fmt.Errorf("writing table header: %w", err)
				}
				for _, k := range keys {
					used := "never"
					if k.LastUsedAt != nil {
						used = k.LastUsedAt.Local().Format("2006-01-02 15:04")
					}
					if _, err := fmt.Fprintf(w, "%d\t%s\t%s…\t%s\t%s\n",
						k.ID, truncate(k.Name, 30), k.KeyPrefix, k.CreatedAt.Local().Format("2006-01-02"), used); err != nil {
						return fmt.Errorf("writing table row: %w", err)
					}
				}
				return w.Flush()
			})
		},
	}
}

func newKeysRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key ID: %s", args[0])
			}
			return withKeyStore(func(store *auth.APIKeyStore) error {
				if err := store.Delete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Revoked key #%d.\n", id)
				return nil
			})
		},
	}
}
