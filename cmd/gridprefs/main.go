// Command gridprefs validates, stores and applies data-grid settings profiles.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gridprefs/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
