// Command gauntlet runs registered validations against registered models
// and keeps the results in one table.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gauntlet/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
