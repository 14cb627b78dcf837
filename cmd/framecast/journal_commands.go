package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"framecast/internal/journal"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List serving sessions recorded in the keyframe journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				sessions, err := store.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, sessions)
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions recorded")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, sess := range sessions {
					rows = append(rows, []string{
						sess.ID,
						sess.Scene,
						formatTime(sess.StartedAt),
						strconv.Itoa(sess.Units),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Session", "Scene", "Started", "Units"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newKeyframesCommand(ctx *commandContext) *cobra.Command {
	var (
		sessionID string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "keyframes",
		Short: "List the keyframes of a session (latest by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				id := strings.TrimSpace(sessionID)
				if id == "" {
					latest, err := store.LatestSession(cmd.Context())
					if errors.Is(err, journal.ErrNoSessions) {
						fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
						return nil
					}
					if err != nil {
						return err
					}
					id = latest.ID
				}
				records, err := store.List(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %s\n", id)
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						strconv.Itoa(rec.Index),
						string(rec.Kind),
						rec.Name,
						strconv.FormatFloat(rec.Duration, 'f', 3, 64),
						yesNo(rec.Skipped),
						strconv.Itoa(rec.ObjectCount),
						formatTime(rec.PublishedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Unit", "Kind", "Name", "Duration", "Skipped", "Objects", "Published"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (see `framecast sessions`)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
