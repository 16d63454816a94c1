// Package warpsync converts warp-level synchronization in NVVM kernels into
// block-level barriers for Pascal-class GPUs.
//
// warpsync reads a small LLVM-flavoured textual IR, runs a pipeline of
// passes over it and prints the result. The default pipeline is the single
// convert-syncwarp-to-pascal pass, which rewrites every __syncwarp-style
// call and every llvm.nvvm.bar.warp.sync intrinsic into a call to
// llvm.nvvm.barrier0.
//
// Example usage:
//
//	source := `
//	declare void @__syncwarp(i32)
//
//	define ptx_kernel void @kernel(i32 %mask) {
//	  call void @__syncwarp(i32 %mask)
//	  ret void
//	}
//	`
//	out, err := warpsync.Convert(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The stages are also available individually:
//
//	module, _ := warpsync.Parse(source)
//	report, err := warpsync.Lower(module, warpsync.DefaultOptions())
//	out, _ := warpsync.Print(module)
package warpsync

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/warpsync/conversion/pascal"
	"github.com/gogpu/warpsync/ir"
	"github.com/gogpu/warpsync/pass"
	"github.com/gogpu/warpsync/text"
)

// DefaultPipeline is the pipeline run when Options.Pipeline is empty.
const DefaultPipeline = pascal.PassName

// Options configures conversion.
type Options struct {
	// Validate verifies the module before the pipeline and after every pass.
	Validate bool

	// Pipeline is a comma-separated list of registered pass names.
	Pipeline string

	// MaxIterations bounds rewrite sweeps per pass (0 selects the default).
	MaxIterations int

	// MaxRewrites bounds applied rewrites per pass (0 means unbounded).
	MaxRewrites int

	// Logger receives pass and rewrite logs. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Validate: true,
		Pipeline: DefaultPipeline,
	}
}

// Convert converts textual IR using default options.
func Convert(source string) (string, error) {
	return ConvertWithOptions(source, DefaultOptions())
}

// ConvertWithOptions converts textual IR with custom options.
//
// The conversion pipeline is:
//  1. Parse text to IR
//  2. Run the pass pipeline (verifying if enabled)
//  3. Print IR back to text
func ConvertWithOptions(source string, opts Options) (string, error) {
	module, err := Parse(source)
	if err != nil {
		return "", err
	}

	if _, err := Lower(module, opts); err != nil {
		return "", err
	}

	return Print(module)
}

// Parse parses textual IR into a module.
// Syntax errors are text.SourceErrors carrying line and column.
func Parse(source string) (*ir.Module, error) {
	module, err := text.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return module, nil
}

// Validate validates an IR module.
func Validate(module *ir.Module) ([]ir.ValidationError, error) {
	return ir.Validate(module)
}

// Lower runs the pass pipeline of opts over module in place.
// The report is returned even when a pass fails.
func Lower(module *ir.Module, opts Options) (*pass.Report, error) {
	pipeline := opts.Pipeline
	if pipeline == "" {
		pipeline = DefaultPipeline
	}

	passes, err := pass.ParsePipeline(pipeline, pass.Options{
		MaxIterations: opts.MaxIterations,
		MaxRewrites:   opts.MaxRewrites,
		Logger:        opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	report, err := pass.NewManager(opts.Logger).
		EnableVerifier(opts.Validate).
		Add(passes...).
		Run(module)
	if err != nil {
		return report, fmt.Errorf("lowering error: %w", err)
	}
	return report, nil
}

// Print writes a module as textual IR.
func Print(module *ir.Module) (string, error) {
	return text.Write(module)
}
