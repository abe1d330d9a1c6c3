// Package main provides the pickaxe command.
package main

import (
	"os"

	"github.com/leapstack-labs/pickaxe/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
