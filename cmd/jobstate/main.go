package main

import (
	"os"

	"github.com/roach88/jobstate/internal/cli"
)

func main() {
	opts := &cli.RootOptions{}
	cmd := cli.NewRootCommandWith(opts)
	if err := cmd.Execute(); err != nil {
		out := &cli.OutputFormatter{Format: opts.Format, Writer: os.Stderr, Verbose: opts.Verbose}
		if opts.Format == "json" {
			out.Writer = os.Stdout
		}
		os.Exit(out.Fail(err))
	}
}
