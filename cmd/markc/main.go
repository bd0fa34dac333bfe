package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"markc/internal/version"
)

// exitError carries an exit status without a message: the command already
// reported what went wrong.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var errFailed = &exitError{code: 1}

// app holds state shared by the commands of one invocation.
type app struct {
	color    bool
	cleanups []func()
}

func (a *app) onClose(fn func()) { a.cleanups = append(a.cleanups, fn) }

func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "markc",
		Short:         "Compile-time binding compiler for declarative UI markup",
		Long:          `markc resolves {x:Bind} paths against a type catalog, validates them and rewrites markup for the runtime loader.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics per document (0 = unlimited)")
	pf.String("trace", "", "write trace events to a file ('-' for stderr)")
	pf.String("trace-level", "off", "trace level (off|file|pass)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.String("cpuprofile", "", "write a CPU profile to file")
	pf.String("memprofile", "", "write a heap profile to file")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	root.AddCommand(
		newBuildCmd(a),
		newDiagCmd(a),
		newPathsCmd(a),
		newGraphCmd(a),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// setup runs before every command: color, tracing and profiling.
func (a *app) setup(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	a.color, err = resolveColor(mode, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	setColor(a.color)

	stopTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	a.onClose(stopTrace)

	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	a.onClose(stopProf)
	return nil
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "markc: %v\n", err)
	return 1
}

func main() {
	code := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// isTerminal проверяет, является ли writer терминалом
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
