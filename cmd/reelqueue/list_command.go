package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"reelqueue/internal/task"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := make(map[task.Status]struct{}, len(statusFlags))
			for _, raw := range statusFlags {
				filter[task.Status(raw)] = struct{}{}
			}

			return ctx.withQueue(cmd.Context(), func(q queueAccess) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				tasks, err := q.Tasks(cmd.Context())
				if err != nil {
					return err
				}

				var rows []table.Row
				for _, t := range tasks {
					if len(filter) > 0 {
						if _, ok := filter[t.Status]; !ok {
							continue
						}
					}
					rows = append(rows, table.Row{
						shortID(t.ID),
						t.Subject,
						string(t.Type),
						colorizeStatus(t.Status, colorize),
						formatProgress(t),
						formatCreated(t),
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}

				fmt.Fprintln(out, renderTaskTable(rows))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by task status (repeatable)")
	return cmd
}
