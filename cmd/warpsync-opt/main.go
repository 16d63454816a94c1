// Command warpsync-opt runs conversion passes over textual NVVM IR.
//
// Usage:
//
//	warpsync-opt [flags] [files...]
//
// With no files, or with "-", the module is read from stdin.
//
// Examples:
//
//	warpsync-opt kernel.ll                       # Convert to stdout
//	warpsync-opt -o out.ll kernel.ll             # Convert to a file
//	warpsync-opt -i --jobs 8 *.ll                # Convert files in place
//	warpsync-opt --list-passes                   # Show registered passes
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/warpsync"
	"github.com/gogpu/warpsync/internal/opts"
	"github.com/gogpu/warpsync/ir"
	"github.com/gogpu/warpsync/pass"
	"github.com/gogpu/warpsync/text"
)

const warpsyncVersion = "0.1.0-dev"

const stdinName = "-"

type cliOptions struct {
	output        string
	inPlace       bool
	pipeline      string
	verify        bool
	maxIterations int
	jobs          int
	dump          bool
	listPasses    bool
	verbose       bool
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &cliOptions{}
	cmd := &cobra.Command{
		Use:   "warpsync-opt [flags] [files...]",
		Short: "Convert warp-level synchronization to Pascal barriers",
		Long: `warpsync-opt parses textual NVVM IR, runs a pass pipeline over it and
prints the result. The default pipeline replaces __syncwarp calls and
llvm.nvvm.bar.warp.sync intrinsics with llvm.nvvm.barrier0.`,
		Version:       warpsyncVersion,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.listPasses {
				return listPasses(cmd.OutOrStdout())
			}
			return run(cmd, o, args)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	bindFlags(cmd.Flags(), o)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, o *cliOptions) {
	fs.StringVarP(&o.output, "output", "o", "", "output file (default: stdout)")
	fs.BoolVarP(&o.inPlace, "in-place", "i", false, "rewrite input files in place")
	fs.StringVar(&o.pipeline, "pass-pipeline", warpsync.DefaultPipeline, "comma-separated list of passes to run")
	fs.BoolVar(&o.verify, "verify", true, "verify the module before and after each pass")
	fs.IntVar(&o.maxIterations, "max-iterations", opts.MaxIterations, "rewrite sweeps per pass before giving up")
	fs.IntVarP(&o.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of files processed in parallel")
	fs.BoolVar(&o.dump, "dump", false, "dump the converted IR structure to stderr")
	fs.BoolVar(&o.listPasses, "list-passes", false, "list registered passes and exit")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")
	fs.SortFlags = false
}

func listPasses(w io.Writer) error {
	for _, name := range pass.Names() {
		info, _ := pass.Lookup(name)
		if _, err := fmt.Fprintf(w, "%-32s %s\n", info.Name, info.Description); err != nil {
			return err
		}
	}
	return nil
}

// unit is one input module and its converted form.
type unit struct {
	path   string
	output string
	module *ir.Module
}

func run(cmd *cobra.Command, o *cliOptions, args []string) error {
	if len(args) == 0 {
		args = []string{stdinName}
	}
	if err := o.check(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	convertOpts := warpsync.Options{
		Validate:      o.verify,
		Pipeline:      o.pipeline,
		MaxIterations: o.maxIterations,
		Logger:        logger,
	}

	units := make([]unit, len(args))
	for i, path := range args {
		units[i].path = path
	}

	// Stdin is read up front so that workers only touch files.
	var stdin string
	if args[0] == stdinName {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		stdin = string(data)
	}

	var g errgroup.Group
	g.SetLimit(max(o.jobs, 1))
	for i := range units {
		u := &units[i]
		g.Go(func() error {
			source := stdin
			if u.path != stdinName {
				data, err := os.ReadFile(u.path)
				if err != nil {
					return err
				}
				source = string(data)
			}
			return u.convert(source, convertOpts)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return o.emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), units)
}

func (o *cliOptions) check(args []string) error {
	switch {
	case o.output != "" && o.inPlace:
		return errors.New("-o and -i are mutually exclusive")
	case o.output != "" && len(args) > 1:
		return errors.New("-o requires a single input file")
	case o.inPlace && args[0] == stdinName:
		return errors.New("-i requires input files")
	case len(args) > 1 && lo.Contains(args, stdinName):
		return errors.New("stdin cannot be mixed with input files")
	case o.maxIterations < 1:
		return fmt.Errorf("--max-iterations must be at least 1, got %d", o.maxIterations)
	}
	return nil
}

func (u *unit) convert(source string, convertOpts warpsync.Options) error {
	module, err := warpsync.Parse(source)
	if err != nil {
		var errs text.SourceErrors
		if errors.As(err, &errs) {
			return fmt.Errorf("%s:\n%s", u.displayName(), strings.TrimRight(errs.FormatAll(), "\n"))
		}
		return fmt.Errorf("%s: %w", u.displayName(), err)
	}

	if _, err := warpsync.Lower(module, convertOpts); err != nil {
		return fmt.Errorf("%s: %w", u.displayName(), err)
	}

	out, err := warpsync.Print(module)
	if err != nil {
		return fmt.Errorf("%s: %w", u.displayName(), err)
	}
	u.module = module
	u.output = out
	return nil
}

func (u *unit) displayName() string {
	if u.path == stdinName {
		return "<stdin>"
	}
	return u.path
}

// emit writes results in input order.
func (o *cliOptions) emit(stdout, stderr io.Writer, units []unit) error {
	for i := range units {
		u := &units[i]
		if o.dump {
			fmt.Fprintf(stderr, "; %s\n", u.displayName())
			spew.Fdump(stderr, u.module)
		}

		switch {
		case o.inPlace:
			if err := os.WriteFile(u.path, []byte(u.output), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", u.path, err)
			}
		case o.output != "":
			if err := os.WriteFile(o.output, []byte(u.output), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", o.output, err)
			}
		default:
			if _, err := io.WriteString(stdout, u.output); err != nil {
				return err
			}
		}
	}
	return nil
}
