package main

import (
	"github.com/spf13/cobra"
)

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the pipeline with the Porch server",
		Long: "Registers the ont-event-email pipeline with the Porch server. This is\n" +
			"needed once per pipeline version and requires an admin token. A pipeline\n" +
			"that is already registered is reported as a warning, not an error.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := ctx.client()
			if err != nil {
				return err
			}
			return client.Register(cmd.Context())
		},
	}
}
