package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry TASK_ID...",
		Short: "Reset failed or cancelled tasks to pending",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(q queueAccess) error {
				out := cmd.OutOrStdout()
				tasks, err := q.Tasks(cmd.Context())
				if err != nil {
					return err
				}
				for _, ref := range args {
					t, err := resolveTask(tasks, ref)
					if err != nil {
						return err
					}
					retried, err := q.Retry(cmd.Context(), t.ID)
					if err != nil {
						return err
					}
					if retried {
						fmt.Fprintf(out, "Task %s reset for retry\n", shortID(t.ID))
					} else {
						fmt.Fprintf(out, "Task %s is %s; only failed or cancelled tasks can be retried\n", shortID(t.ID), t.Status)
					}
				}
				return nil
			})
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel TASK_ID...",
		Short: "Cancel queued tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(q queueAccess) error {
				out := cmd.OutOrStdout()
				tasks, err := q.Tasks(cmd.Context())
				if err != nil {
					return err
				}
				for _, ref := range args {
					t, err := resolveTask(tasks, ref)
					if err != nil {
						return err
					}
					cancelled, err := q.Cancel(cmd.Context(), t.ID)
					if err != nil {
						return err
					}
					if cancelled {
						fmt.Fprintf(out, "Task %s cancelled\n", shortID(t.ID))
					} else {
						fmt.Fprintf(out, "Task %s is %s and cannot be cancelled\n", shortID(t.ID), t.Status)
					}
				}
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TASK_ID...",
		Short: "Remove tasks from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(q queueAccess) error {
				out := cmd.OutOrStdout()
				tasks, err := q.Tasks(cmd.Context())
				if err != nil {
					return err
				}
				for _, ref := range args {
					t, err := resolveTask(tasks, ref)
					if err != nil {
						return err
					}
					removed, err := q.Remove(cmd.Context(), t.ID)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Task %s removed\n", shortID(t.ID))
					}
				}
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished tasks from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := 0
			for _, flag := range []bool{clearCompleted, clearFailed, clearAll} {
				if flag {
					selected++
				}
			}
			if selected > 1 {
				return fmt.Errorf("specify only one of --completed, --failed, or --all")
			}

			return ctx.withQueue(cmd.Context(), func(q queueAccess) error {
				out := cmd.OutOrStdout()
				var removed int
				var err error
				switch {
				case clearFailed:
					removed, err = q.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d failed tasks\n", removed)
				case clearAll:
					removed, err = q.ClearAll(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d tasks\n", removed)
				default:
					removed, err = q.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed tasks\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove completed tasks (default)")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove failed tasks")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove every task, cancelling in-flight work")
	return cmd
}
