// Package cli provides centralized command registration.
package cli

import (
	"github.com/ryankurte/efm32-mbedtls/internal/commands/cli/device"
	"github.com/ryankurte/efm32-mbedtls/internal/commands/cli/mac"
	"github.com/ryankurte/efm32-mbedtls/internal/commands/cli/selftest"
	"github.com/ryankurte/efm32-mbedtls/internal/commands/cli/server"
	"github.com/spf13/cobra"
)

// RegisterCommands registers all root commands.
func RegisterCommands(root *cobra.Command) error {
	// Root commands.
	root.AddCommand(mac.NewMacCommand())
	root.AddCommand(selftest.NewSelfTestCommand())
	root.AddCommand(device.NewDevicesCommand())
	root.AddCommand(server.NewServeCommand())

	return nil
}
