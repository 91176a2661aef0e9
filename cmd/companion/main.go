// Package main provides the entry point for the companion CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/codingwatching/companion/internal/cli"
	"github.com/codingwatching/companion/internal/signal"
)

// Build metadata injected via -ldflags at release time.
//
//nolint:gochecknoglobals // ldflags targets must be package-level vars
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

// run keeps the real work out of main so deferred cleanup fires before
// the process exits.
func run() int {
	handler := signal.NewHandler(context.Background())
	defer handler.Stop()
	defer cli.CloseLogFile()

	err := cli.Execute(handler.Context(), cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	select {
	case <-handler.Interrupted():
		fmt.Fprintln(os.Stderr, "interrupted")
		return 130
	default:
	}

	return cli.ExitCodeForError(err)
}
