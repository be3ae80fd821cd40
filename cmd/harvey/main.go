package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	root := &cobra.Command{
		Use:   "harvey",
		Short: "H.A.R.V.E.Y. pricing intelligence agent",
	}
	root.PersistentFlags().String("config", getenv("HARVEY_CONFIG", ""), "path to config file")

	root.AddCommand(serveCMD())
	root.AddCommand(migrateCMD())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
