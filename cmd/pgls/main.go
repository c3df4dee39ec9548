// Package main provides the CLI entry point for pgls.
package main

import (
	"os"

	"github.com/pg-lang-server/pgls/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
