// Package main is the entry point for the retail CLI binary.
package main

import (
	"os"

	cli "retail-insights/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
