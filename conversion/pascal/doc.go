// Package pascal converts warp-level synchronization into block-level
// barriers for GPUs without independent thread scheduling (Pascal and
// earlier).
//
// Two rewrites are provided. Direct calls whose callee name contains
// "syncwarp" and intrinsic calls to "llvm.nvvm.bar.warp.sync" both become
// a call to the external declaration "llvm.nvvm.barrier0", which is
// created at the start of the module on first use. Arguments and results
// of the replaced calls are dropped.
//
// The conversion does not check that the substitution is safe: it assumes
// kernels without warp-divergent control flow around the barriers.
//
// # Usage
//
//	stats, err := pascal.NewPass().Run(module)
//
// or through a pipeline:
//
//	passes, err := pass.ParsePipeline("convert-syncwarp-to-pascal", pass.Options{})
package pascal
