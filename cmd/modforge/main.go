// Package main is the entrypoint for the modforge CLI.
package main

import (
	"os"

	"github.com/forgelabs/modforge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
