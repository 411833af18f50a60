// Package main is the entry point for the lullaby CLI.
package main

import (
	"os"

	"github.com/lullaby-fm/lullaby/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
