package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framecast/internal/scenes"
)

func newScenesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "scenes",
		Short:       "List the built-in scenes",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := scenes.All()
			rows := make([][]string, 0, len(defs))
			for _, def := range defs {
				rows = append(rows, []string{def.Name, def.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Scene", "Description"}, rows, nil))
			return nil
		},
	}
}
