// Command forecastdb is the read-access CLI for forecast runs.
package main

import (
	"os"

	"github.com/roach88/forecastdb/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
