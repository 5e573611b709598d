package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "the37thmove",
	Short:        "Personality-conditioned chat service for living artworks",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
