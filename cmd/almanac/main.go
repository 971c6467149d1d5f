// Command almanac interprets and runs searches against the almanac
// knowledgebase.
package main

import (
	"fmt"
	"os"

	"github.com/vanallenlab/almanac/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
