package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelqueue/internal/locale"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var followUpFlags []string
	var localeFlags []string
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "add SUBJECT",
		Short: "Enqueue a task for a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskType, ok := tasktype.Parse(typeFlag)
			if !ok {
				return fmt.Errorf("unknown task type %q (valid: %v)", typeFlag, tasktype.All())
			}

			followUps := make([]tasktype.Type, 0, len(followUpFlags))
			for _, raw := range followUpFlags {
				followUp, ok := tasktype.Parse(raw)
				if !ok {
					return fmt.Errorf("unknown follow-up task type %q", raw)
				}
				followUps = append(followUps, followUp)
			}

			locales, err := locale.NormalizeAll(localeFlags)
			if err != nil {
				return err
			}
			if len(locales) == 0 {
				if cfg, cfgErr := ctx.ensureConfig(); cfgErr == nil {
					locales = cfg.Translation.DefaultLocales
				}
			}

			opts := []task.Option{
				task.WithFollowUps(followUps...),
				task.WithTargetLocales(locales...),
			}
			if forceFlag {
				opts = append(opts, task.WithForceReprocess())
			}
			t := task.New(args[0], taskType, opts...)

			return ctx.withQueue(cmd.Context(), func(q queueAccess) error {
				added, ok, err := q.Add(cmd.Context(), t)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "A %s task for %q is already queued\n", taskType, t.Subject)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s task %s (%s)\n", taskType, shortID(t.ID), added.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", string(tasktype.TypeImport), "Task type to enqueue")
	cmd.Flags().StringSliceVar(&followUpFlags, "follow-up", nil, "Task type to enqueue after completion (repeatable)")
	cmd.Flags().StringSliceVar(&localeFlags, "locale", nil, "Target locale for translation tasks (repeatable)")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Reprocess even when prior output exists")
	return cmd
}
