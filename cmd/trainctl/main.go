// Command trainctl is a thin CLI consumer of the operations core: every
// subcommand is a direct call into a sessionsvc/carordersvc/trainsvc
// operation, with colorized and humanized output as its only added value.
// It performs no validation or business logic of its own.
package main

import (
	"os"

	"github.com/you/trainctl/cmd/trainctl/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		cli.PrintError(err)
		os.Exit(1)
	}
}
