package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"framecast/internal/serverrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		sceneName   string
		skip        bool
		fromUnit    int
		noDiscover  bool
		logLevel    string
		development bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the frame server for a scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if name := strings.TrimSpace(sceneName); name != "" {
				cfg.Scene.Name = name
			}
			if skip {
				cfg.Scene.SkipAnimations = true
			}
			if cmd.Flags().Changed("from-unit") {
				cfg.Scene.FromUnit = fromUnit
			}
			if noDiscover {
				cfg.Renderer.Discover = false
			}
			if addr := strings.TrimSpace(*ctx.addrFlag); addr != "" {
				cfg.Server.Bind = addr
			}
			return serverrun.Run(cmd.Context(), cfg, serverrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}

	cmd.Flags().StringVarP(&sceneName, "scene", "s", "", "Scene to serve (see `framecast scenes`)")
	cmd.Flags().BoolVar(&skip, "skip-animations", false, "Run every unit to its end without waiting for a renderer")
	cmd.Flags().IntVar(&fromUnit, "from-unit", 0, "Skip units before this index")
	cmd.Flags().BoolVar(&noDiscover, "no-discover", false, "Do not probe or launch the renderer")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")
	return cmd
}
