package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isa-group/harvey/config"
	"github.com/isa-group/harvey/internal/server"
)

func migrateCMD() *cobra.Command {
	var dir, direction string
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply audit store migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg := config.LoadConfig(path)
			if !cfg.Storage.Postgres.Enabled() {
				return fmt.Errorf("storage.postgres is not configured")
			}
			return server.Migrate(dir, cfg.Storage.Postgres.DSN(), direction, steps)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "migrations directory")
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps, 0 for all")
	return cmd
}
