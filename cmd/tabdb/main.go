// Package main provides the tabdb command.
package main

import (
	"os"

	"github.com/leapstack-labs/tabdb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
