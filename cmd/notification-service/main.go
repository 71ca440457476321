package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/notification.yaml"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "notification-service",
		Short:         "Customer notification dispatcher",
		Long:          `notification-service consumes notification events from Kafka or NATS and delivers them over WhatsApp and email.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := defaultConfigPath
	if envPath := os.Getenv("NOTIFY_CONFIG"); envPath != "" {
		defaultPath = envPath
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "Path to YAML config (env: NOTIFY_CONFIG)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfigPath returns the config file to load. A missing file at the
// default location means environment-only configuration; a missing file
// the user asked for is an error.
func resolveConfigPath(cmd *cobra.Command) (string, error) {
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") && os.Getenv("NOTIFY_CONFIG") == "" {
			return "", nil
		}
		return "", fmt.Errorf("config %s: %w", configPath, err)
	}
	return configPath, nil
}
