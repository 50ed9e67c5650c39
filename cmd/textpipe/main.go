// Package main provides the textpipe command line tool for running ad-hoc
// transformation pipelines from the terminal.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/textpipe/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "textpipe",
		Usage:                 "Run text transformation pipelines",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
