// Package cli provides the CLI command structure for slcrypto.
package cli

import (
	"fmt"

	"github.com/ryankurte/efm32-mbedtls/internal/config"
	"github.com/ryankurte/efm32-mbedtls/pkg/cryptodrv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// NewRootCommand creates and returns the root command with all subcommands.
func NewRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "slcrypto",
		Short: "CRYPTO hardware accelerator service and utilities",
		Long: `AES-CMAC service and utilities backed by the CRYPTO accelerator
device registry. Provides a TCP host command server and local MAC
generation, verification, and diagnostics tooling.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// Initialize configuration before running any command.
			if err := config.Initialize(); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// Stand up the device registry from configuration.
			cfg := config.Get()
			if err := cryptodrv.Configure(cryptodrv.Config{
				Devices:      cfg.Device.Count,
				TickDuration: cfg.Device.Tick,
			}); err != nil {
				return fmt.Errorf("failed to configure crypto devices: %w", err)
			}

			return nil
		},
	}

	// Add persistent flags that affect all commands.
	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default is $HOME/.slcrypto/config.yaml)")

	// Add global flags that can override config file settings.
	rootCmd.PersistentFlags().
		String("log-level", "", "logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "logging format (human, json)")

	// Bind flags to viper.
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Register all commands.
	if err := RegisterCommands(rootCmd); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	return rootCmd, nil
}
