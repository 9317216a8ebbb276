package cli

import (
	"github.com/spf13/cobra"
)

func newRecentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List recently viewed movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLocal()
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.library.Recent()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			return printEntries(cmd.OutOrStdout(), entries, "Nothing viewed yet.")
		},
	}
}
