package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bayanwatch/patrol-server/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "patrolctl",
		Short: "patrolctl - command-line client for the BayanWatch patrol server",
		Long: `patrolctl talks to a running patrol server over its REST API.
It bulk-imports weekly report spreadsheets and downloads CSV exports
without going through the web console.`,
	}

	rootCmd.PersistentFlags().String("server", cli.DefaultServer(), "Base URL of the patrol server")
	rootCmd.PersistentFlags().String("token", os.Getenv("PATROL_TOKEN"), "Bearer token (or set PATROL_TOKEN)")

	rootCmd.AddCommand(cli.ImportCmd())
	rootCmd.AddCommand(cli.ExportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
