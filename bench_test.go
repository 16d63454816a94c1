package warpsync

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/gogpu/warpsync/ir"
)

// ---------------------------------------------------------------------------
// Test kernel sources at different complexity levels
// ---------------------------------------------------------------------------

// kernelSmall has a single warp sync.
const kernelSmall = `
declare void @__syncwarp(i32)

define ptx_kernel void @reduce(i32 %mask) {
  call void @__syncwarp(i32 %mask)
  ret void
}
`

// kernelMedium mixes direct calls and intrinsics inside control flow.
const kernelMedium = `
declare void @__syncwarp(i32)
declare void @_Z10__syncwarpj(i32)
declare i32 @llvm.nvvm.read.ptx.sreg.laneid()

define ptx_kernel void @scan(i32 %mask, ptr addrspace(3) %tile) {
  %lane = call i32 @llvm.nvvm.read.ptx.sreg.laneid()
  %odd = and i32 %lane, 1
  %c = ne i32 %odd, 0
  if %c {
    call void @__syncwarp(i32 %mask)
  } else {
    call_intrinsic void "llvm.nvvm.bar.warp.sync"(i32 %mask)
  }
  loop {
    call void @_Z10__syncwarpj(i32 -1)
    %done = eq i32 %lane, 31
    if %done {
      break
    }
    continue
  }
  ret void
}
`

// kernelLarge returns a module with many kernels, each holding several
// warp syncs at different nesting depths.
func kernelLarge(kernels int) string {
	var sb strings.Builder
	sb.WriteString("declare void @__syncwarp(i32)\n")
	for k := 0; k < kernels; k++ {
		fmt.Fprintf(&sb, `
define ptx_kernel void @k%d(i32 %%mask) {
  call void @__syncwarp(i32 %%mask)
  %%c = eq i32 %%mask, %d
  if %%c {
    call_intrinsic void "llvm.nvvm.bar.warp.sync"(i32 %%mask)
    loop {
      call void @__syncwarp(i32 -1)
      break
    }
  }
  ret void
}
`, k, k)
	}
	return sb.String()
}

type kernelCase struct {
	name   string
	source string
}

var kernelsByComplexity = []kernelCase{
	{"small", kernelSmall},
	{"medium", kernelMedium},
	{"large_64", kernelLarge(64)},
	{"large_512", kernelLarge(512)},
}

// ---------------------------------------------------------------------------
// End-to-End: text in, text out
// ---------------------------------------------------------------------------

// BenchmarkConvert benchmarks parse, conversion and printing grouped by
// kernel complexity. Reports allocations and throughput in bytes/sec.
func BenchmarkConvert(b *testing.B) {
	for _, kc := range kernelsByComplexity {
		b.Run(kc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(kc.source)))
			b.ResetTimer()

			var result string
			for i := 0; i < b.N; i++ {
				var err error
				result, err = ConvertWithOptions(kc.source, Options{Pipeline: DefaultPipeline})
				if err != nil {
					b.Fatalf("convert failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkConvertWithValidation measures the verifier overhead.
func BenchmarkConvertWithValidation(b *testing.B) {
	for _, kc := range kernelsByComplexity {
		b.Run(kc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(kc.source)))
			b.ResetTimer()

			var result string
			for i := 0; i < b.N; i++ {
				var err error
				result, err = ConvertWithOptions(kc.source, DefaultOptions())
				if err != nil {
					b.Fatalf("convert failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// ---------------------------------------------------------------------------
// Individual stages
// ---------------------------------------------------------------------------

func BenchmarkParse(b *testing.B) {
	source := kernelLarge(64)
	b.ReportAllocs()
	b.SetBytes(int64(len(source)))
	b.ResetTimer()

	var module *ir.Module
	for i := 0; i < b.N; i++ {
		var err error
		module, err = Parse(source)
		if err != nil {
			b.Fatalf("parse failed: %v", err)
		}
	}
	runtime.KeepAlive(module)
}

// BenchmarkLower excludes parsing by re-parsing outside the timer.
func BenchmarkLower(b *testing.B) {
	source := kernelLarge(64)
	opts := Options{Pipeline: DefaultPipeline}
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		module, err := Parse(source)
		if err != nil {
			b.Fatalf("parse failed: %v", err)
		}
		b.StartTimer()

		if _, err := Lower(module, opts); err != nil {
			b.Fatalf("lower failed: %v", err)
		}
	}
}

func BenchmarkPrint(b *testing.B) {
	module, err := Parse(kernelLarge(64))
	if err != nil {
		b.Fatalf("parse failed: %v", err)
	}
	if _, err := Lower(module, DefaultOptions()); err != nil {
		b.Fatalf("lower failed: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	var out string
	for i := 0; i < b.N; i++ {
		out, err = Print(module)
		if err != nil {
			b.Fatalf("print failed: %v", err)
		}
	}
	runtime.KeepAlive(out)
}
