package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"reelqueue/internal/events"
	"reelqueue/internal/ipc"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show scheduler events from the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()

				resp, err := client.Events(ipc.EventsRequest{Limit: limit})
				if err != nil {
					return err
				}
				for _, evt := range resp.Events {
					printEvent(out, evt)
				}
				if !follow {
					return nil
				}

				since := resp.Next
				for {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					resp, err := client.Events(ipc.EventsRequest{
						Since:      since,
						Limit:      limit,
						Wait:       true,
						WaitMillis: 1000,
					})
					if err != nil {
						return err
					}
					for _, evt := range resp.Events {
						printEvent(out, evt)
					}
					if resp.Next > since {
						since = resp.Next
					}
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new events until interrupted")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum events per fetch")
	return cmd
}

func printEvent(out io.Writer, evt events.Event) {
	ts := evt.Timestamp.Local().Format(time.TimeOnly)
	if evt.TaskID == "" {
		fmt.Fprintf(out, "%s  %s\n", ts, evt.Kind)
		return
	}
	line := fmt.Sprintf("%s  %-18s %s %s", ts, evt.Kind, evt.TaskType, evt.Subject)
	if evt.Status != "" {
		line += fmt.Sprintf(" -> %s", evt.Status)
	}
	if evt.Kind == events.KindProgress {
		line += fmt.Sprintf(" %.0f%%", evt.Progress*100)
	}
	if evt.Message != "" {
		line += " (" + evt.Message + ")"
	}
	fmt.Fprintln(out, line)
}
