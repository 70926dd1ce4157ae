package main

import (
	"os"

	"github.com/paw-chain/dualoracle/cmd/dualoracled/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
