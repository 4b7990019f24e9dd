// Command avada casts a spell on every ask.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/avada/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
