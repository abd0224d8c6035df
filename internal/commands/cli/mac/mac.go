// Package mac provides MAC computation commands.
package mac

import (
	"github.com/ryankurte/efm32-mbedtls/pkg/cmac"
	"github.com/spf13/cobra"
)

// NewMacCommand creates the mac command group.
func NewMacCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mac",
		Short: "AES-CMAC generation and verification",
		Long: `AES-CMAC generation and verification on the CRYPTO accelerator.
Subcommands compute a MAC over hex encoded data, verify a received MAC,
or walk through the parameters interactively.`,
	}

	// Add subcommands.
	cmd.AddCommand(newGenerateCommand())
	cmd.AddCommand(newVerifyCommand())
	cmd.AddCommand(newInteractiveCommand())

	return cmd
}

// withContext runs fn against a keyed MAC context on the selected device.
// CLI invocations wait for the device rather than failing on contention.
func withContext(device int, key []byte, fn func(*cmac.Context) error) error {
	ctx := new(cmac.Context)
	ctx.Init()
	defer ctx.Free()

	if err := ctx.SetDeviceInstance(device); err != nil {
		return err
	}
	if err := ctx.SetDeviceLockWaitTicks(-1); err != nil {
		return err
	}
	if err := ctx.SetKey(cmac.CipherAES, key, len(key)*8); err != nil {
		return err
	}

	return fn(ctx)
}

// computeTag runs one MAC generation on the selected device.
func computeTag(device int, key, data []byte, macBits int) ([]byte, error) {
	tag := make([]byte, (macBits+7)/8)

	err := withContext(device, key, func(ctx *cmac.Context) error {
		return ctx.GenerateTag(data, len(data)*8, tag, macBits)
	})
	if err != nil {
		return nil, err
	}

	return tag, nil
}
