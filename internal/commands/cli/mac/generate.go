package mac

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an AES-CMAC over hex encoded data",
		Long: `Generate an AES-CMAC over hex encoded data with the given key.
The command outputs the MAC truncated to the requested bit length, with
unused trailing bits of the final byte cleared.`,
		RunE: runGenerate,
	}

	// Add flags.
	cmd.Flags().String("key", "", "AES key in hex (128 or 256 bits)")
	cmd.Flags().String("data", "", "Message data in hex (may be empty)")
	cmd.Flags().Int("mac-bits", 128, "MAC length in bits (1-128)")
	cmd.Flags().Int("device", 0, "CRYPTO device instance")

	if err := cmd.MarkFlagRequired("key"); err != nil {
		panic(err)
	}

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	// Get command flags.
	keyHex, _ := cmd.Flags().GetString("key")
	dataHex, _ := cmd.Flags().GetString("data")
	macBits, _ := cmd.Flags().GetInt("mac-bits")
	device, _ := cmd.Flags().GetInt("device")

	key, data, err := decodeKeyAndData(keyHex, dataHex)
	if err != nil {
		return err
	}

	if macBits < 1 || macBits > 128 {
		return fmt.Errorf("mac-bits must be between 1 and 128, got %d", macBits)
	}

	tag, err := computeTag(device, key, data, macBits)
	if err != nil {
		return fmt.Errorf("failed to generate MAC: %w", err)
	}

	// Output results.
	cmd.Printf("Device: %d\n", device)
	cmd.Printf("Key Length: %d bits\n", len(key)*8)
	cmd.Printf("MAC Length: %d bits\n", macBits)
	cmd.Printf("MAC: %s\n", strings.ToUpper(hex.EncodeToString(tag)))

	return nil
}

// decodeKeyAndData decodes the key and data hex flags shared by the mac
// subcommands.
func decodeKeyAndData(keyHex, dataHex string) ([]byte, []byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid key hex: %w", err)
	}
	if len(key) != 16 && len(key) != 32 {
		return nil, nil, fmt.Errorf("key must be 16 or 32 bytes, got %d", len(key))
	}

	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid data hex: %w", err)
	}

	return key, data, nil
}
