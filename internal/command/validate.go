package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stolasapp/calliope/internal/refs"
)

func validateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate account names and permlinks",
	}
	cmd.AddCommand(
		validateOneCommand("username NAME", "Validate an account name", refs.ValidateUsername),
		validateOneCommand("permlink PERMLINK", "Validate a post permlink", refs.ValidatePermlink),
	)
	return cmd
}

func validateOneCommand(use, short string, validate func(string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate(args[0]); err != nil {
				return fmt.Errorf("%q is invalid: %w", args[0], err)
			}
			return writeLine(cmd, "valid")
		},
	}
}
