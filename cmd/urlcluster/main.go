// Package main is the urlcluster command.
package main

import (
	"os"

	"github.com/leapstack-labs/urlcluster/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
