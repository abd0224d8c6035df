package mac

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newInteractiveCommand creates the interactive MAC builder command.
func newInteractiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Interactively build and compute an AES-CMAC",
		Long: `Walk through device, key, message, and MAC length selection in an
interactive form, then compute the MAC on the accelerator.`,
		RunE: runInteractive,
	}

	return cmd
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	form, ok, err := runMacFormTUI()
	if err != nil {
		return fmt.Errorf("interactive form failed: %w", err)
	}
	if !ok {
		cmd.Println("Operation cancelled.")

		return nil
	}

	key, data, err := decodeKeyAndData(form.keyHex, form.dataHex)
	if err != nil {
		return err
	}

	tag, err := computeTag(form.device, key, data, form.macBits)
	if err != nil {
		return fmt.Errorf("failed to generate MAC: %w", err)
	}

	cmd.Printf("Device: %d\n", form.device)
	cmd.Printf("Key Length: %d bits\n", len(key)*8)
	cmd.Printf("MAC Length: %d bits\n", form.macBits)
	cmd.Printf("MAC: %s\n", strings.ToUpper(hex.EncodeToString(tag)))

	return nil
}
