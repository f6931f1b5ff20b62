package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "journal - natural-language journal and task assistant",
	Long:  `journal is a personal journal and task backend that turns free-form natural language into structured tasks, tracks progress, and keeps recurring schedules up to date.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:8080", "API server address")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
