// Package cli implements the autodoc command line: `autodoc run`, `autodoc init`, `autodoc languages`, and `autodoc config`.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
)

// Version is the autodoc version. It is a var (not a const) so build tooling can override it (for example via `-ldflags "-X .../internal/cli.Version=1.2.3"`).
var Version = "0.1.0"

// RunOptions overrides the process environment. Zero fields use the defaults, which is what main does; tests override them.
type RunOptions struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Dir is the working directory relative paths, config files, and .env are resolved against. Empty means os.Getwd().
	Dir string

	// LookupEnv reads environment variables. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// usageError marks errors caused by malformed arguments or flags.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// Run runs the CLI with args (typically os.Args).
//
// It returns a recommended exit code (0, 1, or 2) and an error, if any:
//   - 0 -> err == nil
//   - 1 -> err != nil, but the structure of args is sound (ex: a file could not be written, or the configuration is invalid).
//   - 2 -> err != nil, args parse error or misuse of flags, etc.
//
// Skipped declarations and unsupported files are reported but are not errors. In cases of errors, Run has already displayed an error message to opts.Err || Stderr.
func Run(args []string, opts *RunOptions) (int, error) {
	argv := args
	if len(argv) > 0 {
		argv = argv[1:]
	}

	env := environment{in: os.Stdin, out: os.Stdout, errW: os.Stderr, lookupEnv: os.LookupEnv}
	if opts != nil {
		if opts.In != nil {
			env.in = opts.In
		}
		if opts.Out != nil {
			env.out = opts.Out
		}
		if opts.Err != nil {
			env.errW = opts.Err
		}
		if opts.LookupEnv != nil {
			env.lookupEnv = opts.LookupEnv
		}
		env.dir = opts.Dir
	}
	if env.dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(env.errW, "Error: %v\n", err)
			return 1, err
		}
		env.dir = wd
	}

	root := newRootCommand(&env)
	root.SetArgs(argv)
	root.SetIn(env.in)
	root.SetOut(env.out)
	root.SetErr(env.errW)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0, nil
	}

	code := 1
	var ue *usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		code = 2
	}
	fmt.Fprintf(env.errW, "Error: %v\n", err)
	if code == 2 && cmd != nil {
		fmt.Fprintf(env.errW, "Run '%s --help' for usage.\n", cmd.CommandPath())
	}
	return code, err
}

// environment is the I/O and process state commands run against.
type environment struct {
	in        io.Reader
	out       io.Writer
	errW      io.Writer
	dir       string
	lookupEnv func(string) (string, bool)
}
