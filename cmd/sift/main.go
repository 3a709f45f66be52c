package main

import (
	"os"

	"github.com/sidkm/sift/cmd/sift/commands"
)

// main is the entry point for the sift CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
