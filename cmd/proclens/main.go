// Package main provides the CLI entry point for ProcLens.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/proclens/proclens/internal/cli"
)

func main() {
	// Database credentials typically live in a .env next to proclens.yaml
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
