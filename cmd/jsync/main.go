// Command jsync keeps Java compiler settings and classpaths in sync with
// build descriptors.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/launchcg/jsync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
