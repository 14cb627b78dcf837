package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"framecast/internal/ipc"
)

func newFrameCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "frame <unit> <offset>",
		Short: "Fetch one frame from a running frame server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil || index < 0 {
				return fmt.Errorf("invalid unit index %q", args[0])
			}
			offset, err := strconv.ParseFloat(args[1], 64)
			if err != nil || offset < 0 {
				return fmt.Errorf("invalid offset %q", args[1])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				frame, err := client.GetFrameAtTime(index, offset)
				if err != nil {
					return fmt.Errorf("get frame: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, frame)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderFrame(frame))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderFrame(frame *ipc.FrameResponse) string {
	switch {
	case frame.Skipped:
		return "Unit was skipped; no frame\n"
	case frame.FramePending && len(frame.Mobjects) == 0:
		if frame.SceneFinished {
			return "Frame pending: scene finished\n"
		}
		return "Frame pending: next unit not live yet\n"
	}

	out := ""
	if frame.AnimationName != "" {
		out += fmt.Sprintf("Animation: %s\n", frame.AnimationName)
	}
	out += fmt.Sprintf("Duration: %.3fs  finished: %s  pending: %s\n",
		frame.Duration, yesNo(frame.AnimationFinished), yesNo(frame.FramePending))

	rows := make([][]string, 0, len(frame.Mobjects))
	for _, m := range frame.Mobjects {
		rows = append(rows, []string{
			m.ID,
			strconv.Itoa(len(m.Points)),
			m.Style.StrokeColor,
			m.Style.FillColor,
			strconv.FormatFloat(m.Style.FillOpacity, 'f', 2, 64),
			yesNo(m.NeedsRedraw),
		})
	}
	out += renderTable(
		[]string{"ID", "Points", "Stroke", "Fill", "Fill Opacity", "Redraw"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
	return out + "\n"
}
