package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wtsi-npg/npg-notifications/internal/mail"
	"github.com/wtsi-npg/npg-notifications/internal/ontevent"
	"github.com/wtsi-npg/npg-notifications/internal/warehouse"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Claim queued tasks and send the emails",
		Long: "Claims a batch of pending notification tasks from the Porch server and\n" +
			"runs each one: the contacts of every study on the run are looked up in\n" +
			"the warehouse and a single email is sent per run. Tasks that fail are\n" +
			"requeued for a later attempt.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, log, err := ctx.client()
			if err != nil {
				return err
			}
			if err := cfg.ValidateWarehouse(); err != nil {
				return err
			}
			if err := cfg.ValidateMail(); err != nil {
				return err
			}

			store, err := warehouse.Open(cfg.Warehouse.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			sender, err := mail.NewSender(cfg.Mail.Domain, cfg.Mail.Host, cfg.Mail.From, log)
			if err != nil {
				return err
			}

			counts := ontevent.RunTasks(cmd.Context(), client, store, sender, cfg.Mail.Domain, log)
			log.Info("completed run",
				"processed", counts.Processed,
				"succeeded", counts.Succeeded,
				"errors", counts.Errors)
			if counts.Errors > 0 {
				return fmt.Errorf("failed to run %d of %d tasks", counts.Errors, counts.Processed)
			}
			return nil
		},
	}
}
