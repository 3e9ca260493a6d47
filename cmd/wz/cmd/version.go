/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "1.0.0"

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the will-zip version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("wz version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
