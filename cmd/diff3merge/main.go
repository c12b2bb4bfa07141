package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mergetools/diff3/internal/buildinfo"
	"github.com/mergetools/diff3/pkg/command"
)

// App is the CLI's single entrypoint: a three-way merge-file command.
// This binary is a thin Kong wrapper over pkg/command.MergeFile, not a
// multi-command porcelain.
type App struct {
	command.Globals
	command.MergeFile
}

func main() {
	var app App
	parser := kong.Must(&app,
		kong.Name("diff3merge"),
		kong.Description("Three-way merge text files with a kdiff3-style aligner"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": buildinfo.GetVersionString()},
	)
	_, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := app.MergeFile.Run(&app.Globals); err != nil {
		var exitErr *command.ExitCodeError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" && exitErr.ExitCode != 1 {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.ExitCode)
		}
		fmt.Fprintf(os.Stderr, "diff3merge: %v\n", err)
		os.Exit(2)
	}
}
