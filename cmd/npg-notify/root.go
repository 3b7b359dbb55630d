package main

import (
	"github.com/spf13/cobra"

	"github.com/wtsi-npg/npg-notifications/internal/ontevent"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "npg-notify",
		Short: "Email notifications for ONT run events",
		Long: "npg-notify sends email notifications to the contacts of the studies\n" +
			"associated with Oxford Nanopore (ONT) runs. Producers use `add` to queue\n" +
			"notification tasks on a Porch server; consumers use `run` to claim tasks\n" +
			"and send the emails. `register` and `token` administer the pipeline and\n" +
			"require an admin token.",
		Version:       ontevent.PipelineVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRegisterCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newTasksCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
