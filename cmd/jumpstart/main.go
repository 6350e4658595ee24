// Package main is the entry point for the jumpstart CLI.
package main

import (
	"os"

	"github.com/jumpstart/jumpstart/pkg/cli"
)

// Version is overridden at build time.
var Version = "dev"

func main() {
	cfg := cli.NewConfig()
	cfg.Version = Version

	if err := cli.NewCLI(cfg).Execute(os.Args[1:]); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}
