package pascal

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/warpsync/ir"
	"github.com/gogpu/warpsync/pass"
	"github.com/gogpu/warpsync/rewrite"
	"github.com/gogpu/warpsync/text"
)

func parse(t *testing.T, source string) *ir.Module {
	t.Helper()
	m, err := text.Parse(source)
	require.NoError(t, err)
	return m
}

func write(t *testing.T, m *ir.Module) string {
	t.Helper()
	out, err := text.Write(m)
	require.NoError(t, err)
	return out
}

func run(t *testing.T, source string) (*ir.Module, pass.Stats) {
	t.Helper()
	m := parse(t, source)
	stats, err := NewPass().Run(m)
	require.NoError(t, err)
	require.NoError(t, pass.Verify(m))
	return m, stats
}

func assertText(t *testing.T, want string, m *ir.Module) {
	t.Helper()
	if diff := cmp.Diff(want, write(t, m)); diff != "" {
		t.Errorf("module mismatch (-want +got):\n%s", diff)
	}
}

// countBarriers returns the number of barrier declarations and barrier calls.
func countBarriers(m *ir.Module) (decls, calls int) {
	for _, fn := range m.Functions {
		if fn.Name == BarrierSymbol {
			decls++
		}
		ir.WalkFunction(fn, func(op *ir.Statement) {
			if call, ok := op.Kind.(ir.StmtCall); ok && call.Callee == BarrierSymbol {
				calls++
			}
		})
	}
	return decls, calls
}

func TestDirectSyncwarpCall(t *testing.T) {
	m, stats := run(t, `
declare void @__syncwarp(i32)

define ptx_kernel void @kernel(i32 %mask) {
  %next = add i32 %mask, 1
  call void @__syncwarp(i32 %next)
  ret void
}
`)

	assertText(t, `declare void @llvm.nvvm.barrier0()
declare void @__syncwarp(i32)

define ptx_kernel void @kernel(i32 %mask) {
  %next = add i32 %mask, 1
  call void @llvm.nvvm.barrier0()
  ret void
}
`, m)
	assert.Equal(t, pass.Stats{Rewrites: 1, Iterations: 2, Inserted: 1}, stats)
	assert.Same(t, m.Functions[0], m.Function(BarrierSymbol))
}

func TestIntrinsicSyncwarp(t *testing.T) {
	m, stats := run(t, `
define ptx_kernel void @kernel() {
  call_intrinsic void "llvm.nvvm.bar.warp.sync"(i32 -1)
  ret void
}
`)

	assertText(t, `declare void @llvm.nvvm.barrier0()

define ptx_kernel void @kernel() {
  call void @llvm.nvvm.barrier0()
  ret void
}
`, m)
	assert.Equal(t, 1, stats.Rewrites)

	call, ok := m.Function("kernel").Body[0].Kind.(ir.StmtCall)
	require.True(t, ok, "replacement must be a call, not an intrinsic call")
	assert.Empty(t, call.Arguments)
	assert.Nil(t, call.Result)
}

func TestUnrelatedCallUnchanged(t *testing.T) {
	source := `declare void @myFunction(i32)

define ptx_kernel void @kernel(i32 %x) {
  call void @myFunction(i32 %x)
  ret void
}
`
	m, stats := run(t, source)

	assertText(t, source, m)
	assert.Equal(t, 0, stats.Rewrites)
	assert.False(t, stats.Changed())
	assert.Nil(t, m.Function(BarrierSymbol), "no barrier is declared when nothing is rewritten")
}

func TestLookAlikesUntouched(t *testing.T) {
	source := `declare void @warp_reduce(i32)
declare void @sync_warp()
declare void @SyncWarp()

define ptx_kernel void @kernel(i32 %x) {
  call void @warp_reduce(i32 %x)
  call void @sync_warp()
  call void @SyncWarp()
  call_intrinsic void "llvm.nvvm.bar.warp.sync.aligned"(i32 %x)
  call_intrinsic void "llvm.nvvm.barrier0"()
  call_intrinsic void "llvm.nvvm.bar.warp"(i32 %x)
  ret void
}
`
	m, stats := run(t, source)
	assertText(t, source, m)
	assert.Equal(t, 0, stats.Rewrites)
}

func TestRewritesNestedSites(t *testing.T) {
	m, stats := run(t, `
declare void @__syncwarp(i32)
declare void @__nvvm_syncwarp_wrapper()

define ptx_kernel void @kernel(i32 %mask, i1 %c) {
  if %c {
    call void @__syncwarp(i32 %mask)
  } else {
    loop {
      call_intrinsic void "llvm.nvvm.bar.warp.sync"(i32 %mask)
      {
        call void @__nvvm_syncwarp_wrapper()
      }
      break
    }
  }
  call void @__syncwarp(i32 -1)
  ret void
}
`)

	assertText(t, `declare void @llvm.nvvm.barrier0()
declare void @__syncwarp(i32)
declare void @__nvvm_syncwarp_wrapper()

define ptx_kernel void @kernel(i32 %mask, i1 %c) {
  if %c {
    call void @llvm.nvvm.barrier0()
  } else {
    loop {
      call void @llvm.nvvm.barrier0()
      {
        call void @llvm.nvvm.barrier0()
      }
      break
    }
  }
  call void @llvm.nvvm.barrier0()
  ret void
}
`, m)
	assert.Equal(t, 4, stats.Rewrites)
	assert.Equal(t, 1, stats.Inserted)
}

func TestIdempotent(t *testing.T) {
	m, _ := run(t, `
declare void @__syncwarp(i32)

define ptx_kernel void @a(i32 %m) {
  call void @__syncwarp(i32 %m)
  call_intrinsic void "llvm.nvvm.bar.warp.sync"(i32 %m)
  ret void
}
`)
	first := write(t, m)

	stats, err := NewPass().Run(m)
	require.NoError(t, err)
	assert.Equal(t, pass.Stats{Iterations: 1}, stats)
	assert.Equal(t, first, write(t, m))
}

func TestSingleBarrierDeclaration(t *testing.T) {
	tests := []struct {
		name  string
		sites int
		decls int
	}{
		{"none", 0, 0},
		{"one", 1, 1},
		{"many", 17, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			sb.WriteString("declare void @__syncwarp(i32)\n\ndefine ptx_kernel void @k(i32 %m) {\n")
			for i := 0; i < tt.sites; i++ {
				if i%2 == 0 {
					sb.WriteString("  call void @__syncwarp(i32 %m)\n")
				} else {
					sb.WriteString("  call_intrinsic void \"llvm.nvvm.bar.warp.sync\"(i32 %m)\n")
				}
			}
			sb.WriteString("  ret void\n}\n")

			m, stats := run(t, sb.String())
			decls, calls := countBarriers(m)
			assert.Equal(t, tt.decls, decls)
			assert.Equal(t, tt.sites, calls)
			assert.Equal(t, tt.sites, stats.Rewrites)
			assert.Equal(t, tt.decls, stats.Inserted)
			if tt.decls > 0 {
				assert.Equal(t, BarrierSymbol, m.Functions[0].Name)
			}
		})
	}
}

func TestReusesExistingBarrier(t *testing.T) {
	m, stats := run(t, `
declare void @__syncwarp(i32)
declare extern_weak void @llvm.nvvm.barrier0()

define ptx_kernel void @k(i32 %m) {
  call void @__syncwarp(i32 %m)
  ret void
}
`)

	decls, calls := countBarriers(m)
	assert.Equal(t, 1, decls)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, stats.Inserted)
	// The existing declaration keeps its place and linkage.
	assert.Equal(t, BarrierSymbol, m.Functions[1].Name)
	assert.Equal(t, ir.LinkageExternWeak, m.Functions[1].Linkage)
}

func TestIncompatibleExistingBarrier(t *testing.T) {
	m := parse(t, `
declare i32 @llvm.nvvm.barrier0(i32)
declare void @__syncwarp(i32)

define ptx_kernel void @k(i32 %m) {
  call void @__syncwarp(i32 %m)
  ret void
}
`)
	_, err := NewPass().Run(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rewrite.ErrRewriteFailed))
	assert.Contains(t, err.Error(), "incompatible signature")
}

func TestOverMatchesWrapperNames(t *testing.T) {
	// Substring matching also rewrites wrappers whose name merely contains
	// the marker.
	m, stats := run(t, `
declare void @mysyncwarpwrapper()

define ptx_kernel void @k() {
  call void @mysyncwarpwrapper()
  ret void
}
`)
	assert.Equal(t, 1, stats.Rewrites)
	_, calls := countBarriers(m)
	assert.Equal(t, 1, calls)
}

func TestIndirectCallDeclined(t *testing.T) {
	source := `define ptx_kernel void @k(ptr %syncwarp) {
  call void %syncwarp()
  ret void
}
`
	m, stats := run(t, source)
	assertText(t, source, m)
	assert.Equal(t, 0, stats.Rewrites)
}

func TestDropsUnusedResult(t *testing.T) {
	m, stats := run(t, `
declare i32 @__syncwarp_ret(i32)

define ptx_kernel void @k(i32 %m) {
  %r = call i32 @__syncwarp_ret(i32 %m)
  ret void
}
`)
	assert.Equal(t, 1, stats.Rewrites)
	assert.Contains(t, write(t, m), "  call void @llvm.nvvm.barrier0()\n")
}

func TestUsedResultFailsThePass(t *testing.T) {
	m := parse(t, `
declare i32 @__syncwarp_ret(i32)
declare void @__syncwarp(i32)

define i32 @f(i32 %m) {
  call void @__syncwarp(i32 %m)
  %r = call i32 @__syncwarp_ret(i32 %m)
  ret i32 %r
}
`)
	stats, err := NewPass().Run(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rewrite.ErrRewriteFailed))
	assert.True(t, errors.Is(err, rewrite.ErrInvalidRewrite))

	// Rewrites applied before the failure stay.
	assert.Equal(t, 1, stats.Rewrites)
	assert.Equal(t, 1, stats.Inserted)
	out := write(t, m)
	assert.Contains(t, out, "call void @llvm.nvvm.barrier0()")
	assert.Contains(t, out, "%r = call i32 @__syncwarp_ret(i32 %m)")
}

func TestIterationLimitFailsThePass(t *testing.T) {
	m := parse(t, `
declare void @__syncwarp(i32)

define ptx_kernel void @k(i32 %m) {
  call void @__syncwarp(i32 %m)
  ret void
}
`)
	// One sweep rewrites; a second is needed to confirm the fixpoint.
	_, err := NewPass(rewrite.WithMaxIterations(1)).Run(m)
	assert.True(t, errors.Is(err, rewrite.ErrNotConverged))
}

func TestNilModule(t *testing.T) {
	_, err := NewPass().Run(nil)
	assert.Error(t, err)
}

func TestIsSyncwarpCallee(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"__syncwarp", true},
		{"syncwarp", true},
		{"_Z10__syncwarpj", true},
		{"mysyncwarpwrapper", true},
		{"syncthreads", false},
		{"warp_sync", false},
		{"SYNCWARP", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSyncwarpCallee(tt.name), tt.name)
	}
}

func TestPatternsOrder(t *testing.T) {
	patterns := Populate(rewrite.NewPatternSet()).Patterns()
	require.Len(t, patterns, 2)
	assert.Equal(t, "syncwarp-call", patterns[0].Name())
	assert.Equal(t, "syncwarp-intrinsic", patterns[1].Name())
}

func TestRegisteredPass(t *testing.T) {
	info, ok := pass.Lookup(PassName)
	require.True(t, ok)
	assert.NotEmpty(t, info.Description)

	passes, err := pass.ParsePipeline(PassName, pass.Options{MaxIterations: 5})
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, PassName, passes[0].Name())

	m := parse(t, `
declare void @__syncwarp(i32)

define ptx_kernel void @k(i32 %m) {
  call void @__syncwarp(i32 %m)
  ret void
}
`)
	report, err := pass.NewManager(nil).EnableVerifier(true).Add(passes...).Run(m)
	require.NoError(t, err)
	assert.Equal(t, pass.StateSucceeded, report.Passes[0].State)
	assert.Equal(t, 1, report.Total().Rewrites)
}

// TestRandomModules checks the conversion on generated kernels: every
// matching site becomes one barrier call, nothing else changes and the
// module stays valid.
func TestRandomModules(t *testing.T) {
	faker := gofakeit.New(20240611)

	for iter := 0; iter < 50; iter++ {
		callees := map[string]bool{}
		var order []string
		addCallee := func(name string) string {
			if !callees[name] {
				callees[name] = true
				order = append(order, name)
			}
			return name
		}

		var body strings.Builder
		wantSites, wantOther := 0, 0
		kernels := faker.Number(1, 4)
		for k := 0; k < kernels; k++ {
			fmt.Fprintf(&body, "\ndefine ptx_kernel void @kernel_%d(i32 %%m) {\n", k)
			sites := faker.Number(0, 12)
			for s := 0; s < sites; s++ {
				switch faker.Number(0, 3) {
				case 0:
					name := addCallee(faker.LetterN(3) + "syncwarp" + faker.LetterN(2))
					fmt.Fprintf(&body, "  call void @%s(i32 %%m)\n", name)
				case 1:
					body.WriteString("  call_intrinsic void \"llvm.nvvm.bar.warp.sync\"(i32 %m)\n")
				case 2:
					name := addCallee("f_" + faker.LetterN(6))
					fmt.Fprintf(&body, "  call void @%s(i32 %%m)\n", name)
				default:
					body.WriteString("  loop {\n    call void @__syncwarp(i32 %m)\n    break\n  }\n")
					addCallee("__syncwarp")
				}
			}
			body.WriteString("  ret void\n}\n")
		}

		var source strings.Builder
		for _, name := range order {
			fmt.Fprintf(&source, "declare void @%s(i32)\n", name)
		}
		source.WriteString(body.String())

		m := parse(t, source.String())
		for _, fn := range m.Functions {
			ir.WalkFunction(fn, func(op *ir.Statement) {
				switch k := op.Kind.(type) {
				case ir.StmtCall:
					if IsSyncwarpCallee(k.Callee) {
						wantSites++
					} else {
						wantOther++
					}
				case ir.StmtCallIntrinsic:
					wantSites++
				}
			})
		}

		stats, err := NewPass().Run(m)
		require.NoError(t, err, "source:\n%s", source.String())
		require.NoError(t, pass.Verify(m), spew.Sdump(m))

		decls, calls := countBarriers(m)
		assert.Equal(t, wantSites, calls, "source:\n%s", source.String())
		assert.Equal(t, wantSites, stats.Rewrites)
		if wantSites == 0 {
			assert.Equal(t, 0, decls)
		} else {
			assert.Equal(t, 1, decls)
		}

		other := 0
		for _, fn := range m.Functions {
			ir.WalkFunction(fn, func(op *ir.Statement) {
				switch k := op.Kind.(type) {
				case ir.StmtCall:
					assert.False(t, IsSyncwarpCallee(k.Callee), "leftover call to %s", k.Callee)
					if k.Callee != BarrierSymbol {
						other++
					}
				case ir.StmtCallIntrinsic:
					t.Errorf("leftover intrinsic %s", k.Intrinsic)
				}
			})
		}
		assert.Equal(t, wantOther, other)
	}
}
