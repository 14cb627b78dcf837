package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framecast/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the scene served by a running frame server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.RendererStatus()
				if err != nil {
					return fmt.Errorf("renderer status: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range statusLines(status, ctx.serverAddr(), colorize) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func statusLines(status *ipc.RendererStatusResponse, addr string, colorize bool) []string {
	lines := []string{
		renderStatusLine("Server", statusOK, addr, colorize),
		renderStatusLine("Scene", statusInfo, status.SceneName, colorize),
		renderStatusLine("Session", statusInfo, status.SessionID, colorize),
		renderStatusLine("Cached units", statusInfo, fmt.Sprintf("%d", status.CachedUnits), colorize),
	}
	switch {
	case status.LiveUnit != nil:
		live := status.LiveUnit
		message := fmt.Sprintf("#%d %s %s (%.2fs)", live.Index, live.Kind, live.Name, live.Duration)
		if live.Skipped {
			message += " skipped"
		}
		lines = append(lines, renderStatusLine("Live unit", statusOK, message, colorize))
	case status.Finished:
		lines = append(lines, renderStatusLine("Live unit", statusInfo, "none (scene finished)", colorize))
	default:
		lines = append(lines, renderStatusLine("Live unit", statusWarn, "none (between units)", colorize))
	}
	lines = append(lines, renderStatusLine("Finished", statusInfo, yesNo(status.Finished), colorize))
	return lines
}
