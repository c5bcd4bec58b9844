// Command truequote produces load profiles and battery quotes and runs the
// TrueQuote validation harness.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/merlin-energy/truequote/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // Set by the linker.

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	root := cli.NewRootCmd(version)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)

	var exitErr *cli.ExitError
	if err != nil && (!errors.As(err, &exitErr) || exitErr.Reason != "") {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return extractExitCode(err)
}

// extractExitCode maps a command error to a process exit code. An ExitError
// anywhere in the chain supplies its own code; any other error is 1.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
