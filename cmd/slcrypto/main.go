package main

import (
	"fmt"
	"os"

	"github.com/ryankurte/efm32-mbedtls/internal/commands/cli"
)

// main builds the slcrypto command tree and runs it.
func main() {
	root, err := cli.NewRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
