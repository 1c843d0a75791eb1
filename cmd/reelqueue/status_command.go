package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"reelqueue/internal/task"
)

var statusDisplayOrder = []task.Status{
	task.StatusPending,
	task.StatusWaiting,
	task.StatusProcessing,
	task.StatusCompleted,
	task.StatusFailed,
	task.StatusCancelled,
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(q queueAccess) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				stats, err := q.Stats(cmd.Context())
				if err != nil {
					return err
				}

				total := 0
				var rows []table.Row
				for _, status := range statusDisplayOrder {
					count, ok := stats[status]
					if !ok {
						continue
					}
					total += count
					rows = append(rows, table.Row{
						colorizeStatus(status, colorize),
						count,
					})
				}
				if total == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				rows = append(rows, table.Row{"total", total})

				fmt.Fprintln(out, renderCountTable(rows))
				return nil
			})
		},
	}
}
