package main

import (
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wtsi-npg/npg-notifications/internal/ontevent"
	"github.com/wtsi-npg/npg-notifications/internal/porch"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the pipeline's tasks",
		Long: "Lists the tasks of the ont-event-email pipeline as recorded by the\n" +
			"Porch server, optionally restricted to one status.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := ctx.client()
			if err != nil {
				return err
			}

			var tasks []porch.Task[ontevent.ContactEmail]
			if statusFlag == "" {
				tasks, err = client.Tasks(cmd.Context())
			} else {
				status, ok := porch.ParseStatus(statusFlag)
				if !ok {
					return errUnknownStatus(statusFlag)
				}
				tasks, err = client.TasksWithStatus(cmd.Context(), status)
			}
			if err != nil {
				return err
			}

			renderTasks(cmd, tasks)
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Restrict to one status (e.g. PENDING, FAILED)")

	return cmd
}

func renderTasks(cmd *cobra.Command, tasks []porch.Task[ontevent.ContactEmail]) {
	writer := table.NewWriter()
	writer.SetOutputMirror(cmd.OutOrStdout())
	writer.AppendHeader(table.Row{"Experiment", "Slot", "Flowcell", "Event", "Status", "Path"})

	for _, task := range tasks {
		input := task.Input
		writer.AppendRow(table.Row{
			input.ExperimentName,
			strconv.Itoa(input.InstrumentSlot),
			input.FlowcellID,
			string(input.Event),
			string(task.Status),
			input.Path,
		})
	}
	writer.AppendFooter(table.Row{"", "", "", "", "Total", strconv.Itoa(len(tasks))})

	if isatty.IsTerminal(os.Stdout.Fd()) {
		writer.SetStyle(table.StyleRounded)
	} else {
		writer.SetStyle(table.StyleDefault)
	}
	writer.Render()
}

type errUnknownStatus string

func (e errUnknownStatus) Error() string {
	return "unknown status " + strconv.Quote(string(e)) + "; expected one of " + statusNames()
}

func statusNames() string {
	names := ""
	for i, status := range porch.AllStatuses() {
		if i > 0 {
			names += ", "
		}
		names += string(status)
	}
	return names
}
