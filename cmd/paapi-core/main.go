// Package main is the entry point for paapi-core, a demo host that
// exercises the selection pipeline and watch evaluator as a library
// behind an HTTP API and a handful of one-shot CLI commands.
package main

import (
	"os"

	"github.com/subszero0/mandimonitor/cmd/paapi-core/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
