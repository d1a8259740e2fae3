// Package cli is the skillbox command line: the TUI launcher plus plain
// subcommands that render the same loading, error and no-data states as text.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/skillbox/internal/api"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

// Version is reported by `skillbox version`.
const Version = "0.1.0"

// Runner executes one command line against the given outputs.
type Runner struct {
	// Stdin feeds the TUI; nil uses the terminal.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// HomeDir and WorkDir override where config files are looked up.
	HomeDir string
	WorkDir string
}

// Run dispatches args with the process streams and returns an exit code
// (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string) int {
	r := &Runner{Stdout: os.Stdout, Stderr: os.Stderr}
	return r.Run(ctx, args)
}

// Run dispatches args and returns an exit code (0 ok, 1 error, 2 usage).
func (r *Runner) Run(ctx context.Context, args []string) int {
	root := r.rootCmd()
	root.SetArgs(args)
	root.SetOut(r.Stdout)
	root.SetErr(r.Stderr)
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	ui.Fail(r.Stderr, err.Error())
	if code := exitCode(err); code == 2 {
		fmt.Fprintln(r.Stderr)
		fmt.Fprint(r.Stderr, cmd.UsageString())
		return code
	}
	return 1
}

// usageError is a command line the user has to fix: bad flags, bad
// arguments or a record that fails local validation.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// commandError is a failed backend call with the line shown to the user.
type commandError struct {
	msg string
	err error
}

func (e *commandError) Error() string { return e.msg }
func (e *commandError) Unwrap() error { return e.err }

func failed(msg string, err error) error {
	if err != nil {
		msg += " " + api.Describe(err)
	}
	return &commandError{msg: msg, err: err}
}

func exitCode(err error) int {
	var ue *usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
