// Package main provides the sqlbind CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/sqlbind/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
