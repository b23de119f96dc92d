package main

import (
	"os"

	"github.com/terra-clan/cyber-assessment/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
