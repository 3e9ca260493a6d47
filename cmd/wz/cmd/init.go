/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Willmo3/will-zip/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the will-zip configuration file",
	Long: `Create the will-zip configuration file with a generated client API key.

The server reads this configuration on startup. Running init is optional:
'wz serve' bootstraps the same file on first run.

Examples:
  wz init
  wz init --data-dir ./mydata --config ./wz.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		configPath, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Configuration already exists at %s. Use --force to recreate.\n", configPath)
			return
		}

		cfg, err := config.BootstrapConfig(configPath, dataDir)
		if err != nil {
			cmd.PrintErrf("Error bootstrapping config: %v\n", err)
			os.Exit(1)
		}

		cmd.Printf("✅ Configuration created at %s\n", configPath)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		cmd.Printf("🔑 Client API Key: %s\n", cfg.Security.ClientAPIKey)
		cmd.Printf("\n⚠️  Store this key securely! It is also saved in %s\n", configPath)
		cmd.Printf("\nYou can now start the server with:\n")
		cmd.Printf("  wz serve --config %s\n", configPath)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("data-dir", "", "Data directory for the artifact vault")
	initCmd.Flags().String("config", "", "Path to config file (default: OS-specific location)")
	initCmd.Flags().Bool("force", false, "Recreate the configuration even if it already exists")
}
