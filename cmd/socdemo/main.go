// Command socdemo plays scripted demo scenarios for the security operations
// dashboard.
package main

import (
	"os"

	"github.com/opencode-ai/socdemo/internal/cli"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
