package main

import (
	"github.com/spf13/cobra"

	"github.com/isa-group/harvey/config"
	"github.com/isa-group/harvey/internal/server"
)

func serveCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg := config.LoadConfig(path)
			return server.Run(cfg)
		},
	}
}
