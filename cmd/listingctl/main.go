// Package main is the entry point for the listingctl moderation CLI.
package main

import (
	"fmt"
	"os"

	"github.com/stwalsh4118/listings/api/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
