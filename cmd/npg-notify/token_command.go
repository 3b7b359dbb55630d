package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "token <description>",
		Short: "Mint a new pipeline token",
		Long: "Mints a new pipeline-scoped token on the Porch server and prints it to\n" +
			"stdout. Requires an admin token. The secret is shown exactly once and\n" +
			"cannot be recovered from the server, so store it safely.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := ctx.client()
			if err != nil {
				return err
			}
			token, err := client.NewToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
