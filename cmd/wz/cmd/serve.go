/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Willmo3/will-zip/pkg/api"
	"github.com/Willmo3/will-zip/pkg/config"
	"github.com/Willmo3/will-zip/pkg/logging"
	"github.com/Willmo3/will-zip/pkg/vault"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the will-zip REST API server with an artifact vault.

On first run a configuration file with a generated client API key is
created automatically. Subsequent runs reuse it.

Examples:
  wz serve
  wz serve --port 9000 --data-dir ./mydata
  wz serve --config ./custom-config.yaml --print-key`,
	Run: func(cmd *cobra.Command, args []string) {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		port, _ := cmd.Flags().GetInt("port")
		bind, _ := cmd.Flags().GetString("bind")
		configPath, _ := cmd.Flags().GetString("config")
		printKey, _ := cmd.Flags().GetBool("print-key")

		// Use default config path if not specified
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		var cfg *config.Config
		var err error

		if config.ConfigExists(configPath) {
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				cmd.PrintErrf("Error loading existing config: %v\n", err)
				os.Exit(1)
			}
			cmd.Printf("✅ Loaded existing configuration from %s\n", configPath)
		} else {
			cmd.Printf("🔧 First run detected. Bootstrapping will-zip...\n")

			cfg, err = config.BootstrapConfig(configPath, dataDir)
			if err != nil {
				cmd.PrintErrf("Error bootstrapping config: %v\n", err)
				os.Exit(1)
			}

			cmd.Printf("✅ Configuration created at %s\n", configPath)
		}

		if printKey {
			cmd.Printf("🔑 Client API Key: %s\n", cfg.Security.ClientAPIKey)
		}

		// Override config with command line flags if provided
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if port != 8080 { // Only override if explicitly set
			cfg.Port = port
		}
		if bind != "127.0.0.1" { // Only override if explicitly set
			cfg.Bind = bind
		}

		log, err := logging.New(os.Stdout, cfg.Logging.Level)
		if err != nil {
			cmd.PrintErrf("Error configuring logging: %v\n", err)
			os.Exit(1)
		}

		v, err := vault.Open(vault.VaultConfig{
			Path:         cfg.DataDir,
			CompactTable: cfg.Compression.CompactTable,
		}, log)
		if err != nil {
			cmd.PrintErrf("Error opening vault: %v\n", err)
			os.Exit(1)
		}
		defer v.Close()

		if container == nil {
			cmd.PrintErrf("Error: dependency container not initialized\n")
			os.Exit(1)
		}

		serverConfig := api.ServerConfig{
			Port:         cfg.Port,
			Bind:         cfg.Bind,
			APIKey:       cfg.Security.ClientAPIKey,
			CompactTable: cfg.Compression.CompactTable,
		}

		starter := container.GetServerFactory().CreateServerStarter()
		if err := starter.StartServer(v, serverConfig, log); err != nil {
			cmd.PrintErrf("Error starting server: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("data-dir", "d", "", "Data directory for the artifact vault")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("config", "", "Path to config file (default: OS-specific location)")
	serveCmd.Flags().Bool("print-key", false, "Print the client API key to console")
}
