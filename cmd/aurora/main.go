// Package main provides the entry point for the aurora CLI.
package main

import (
	"os"

	"github.com/aurorahq/aurora/cmd/aurora/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
