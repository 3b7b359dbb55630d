package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wtsi-npg/npg-notifications/internal/ontevent"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var eventFlag string
	var inputFlag string
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue notification tasks for ONT runs",
		Long: "Reads ONT run records as JSON, one per line, from a file or stdin and\n" +
			"adds a notification task per record to the Porch server. Records are\n" +
			"echoed to the output after processing so producers can be chained.\n" +
			"Adding the same run for the same event twice does not create a\n" +
			"duplicate task.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := ontevent.ParseEvent(eventFlag)
			if err != nil {
				return err
			}
			client, _, log, err := ctx.client()
			if err != nil {
				return err
			}

			reader, closeReader, err := openInput(inputFlag)
			if err != nil {
				return err
			}
			defer closeReader()

			writer, closeWriter, err := openOutput(outputFlag)
			if err != nil {
				return err
			}
			defer closeWriter()

			counts := ontevent.AddTasks(cmd.Context(), client, event, reader, writer, log)
			log.Info("completed add",
				"processed", counts.Processed,
				"added", counts.Succeeded,
				"errors", counts.Errors)
			if counts.Errors > 0 {
				return fmt.Errorf("failed to add %d of %d tasks", counts.Errors, counts.Processed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&eventFlag, "event", "uploaded",
		"Event that triggers the email ("+strings.Join(ontevent.EventNames(), ", ")+")")
	cmd.Flags().StringVarP(&inputFlag, "input", "i", "-", "Run records file, - for stdin")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "-", "Echoed records file, - for stdout")

	return cmd
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input %s: %w", path, err)
	}
	return file, func() { _ = file.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output %s: %w", path, err)
	}
	return file, func() { _ = file.Close() }, nil
}
