package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/warpsync/conversion/pascal"
)

const input = `declare void @__syncwarp(i32)

define ptx_kernel void @kernel(i32 %mask) {
  call void @__syncwarp(i32 %mask)
  ret void
}
`

const converted = `declare void @llvm.nvvm.barrier0()
declare void @__syncwarp(i32)

define ptx_kernel void @kernel(i32 %mask) {
  call void @llvm.nvvm.barrier0()
  ret void
}
`

// execute runs the command with args and stdin and returns its output.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStdin(t *testing.T) {
	out, _, err := execute(t, input)
	require.NoError(t, err)
	assert.Equal(t, converted, out)

	out, _, err = execute(t, input, "-")
	require.NoError(t, err)
	assert.Equal(t, converted, out)
}

func TestOutputFile(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "kernel.ll", input)
	dst := filepath.Join(dir, "out.ll")

	out, _, err := execute(t, "", "-o", dst, in)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, converted, string(data))
}

func TestInPlaceParallel(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 12; i++ {
		paths = append(paths, writeInput(t, dir, fmt.Sprintf("k%02d.ll", i), input))
	}

	_, _, err := execute(t, "", append([]string{"-i", "--jobs", "4"}, paths...)...)
	require.NoError(t, err)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, converted, string(data), path)
	}
}

func TestMultipleFilesKeepOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.ll", input)
	b := writeInput(t, dir, "b.ll", "declare void @other()\n")

	out, _, err := execute(t, "", "-j", "2", b, a)
	require.NoError(t, err)
	assert.Equal(t, "declare void @other()\n"+converted, out)
}

func TestListPasses(t *testing.T) {
	out, _, err := execute(t, "", "--list-passes")
	require.NoError(t, err)
	assert.Contains(t, out, pascal.PassName)
	assert.Contains(t, out, "barrier0")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "warpsync-opt version "+warpsyncVersion+"\n", out)
}

func TestDumpAndVerbose(t *testing.T) {
	out, errOut, err := execute(t, input, "--dump", "-v")
	require.NoError(t, err)
	assert.Equal(t, converted, out)
	assert.Contains(t, errOut, "; <stdin>")
	assert.Contains(t, errOut, "(*ir.Module)")
	assert.Contains(t, errOut, "applied pattern")
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.ll", input)
	b := writeInput(t, dir, "b.ll", input)

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"syntax error", "define void @f() {\n  frob\n}\n", nil, `unknown statement "frob"`},
		{"unknown pass", input, []string{"--pass-pipeline", "nope"}, "nope"},
		{"output with many inputs", "", []string{"-o", filepath.Join(dir, "x.ll"), a, b}, "single input"},
		{"in place with stdin", input, []string{"-i"}, "-i requires input files"},
		{"output and in place", "", []string{"-o", "x", "-i", a}, "mutually exclusive"},
		{"stdin mixed with files", input, []string{"-", a}, "stdin cannot be mixed"},
		{"missing file", "", []string{filepath.Join(dir, "missing.ll")}, "missing.ll"},
		{"no fixpoint", input, []string{"--max-iterations", "1"}, "no fixpoint after 1 iterations"},
		{"bad iterations", input, []string{"--max-iterations", "0"}, "at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, out)
		})
	}
}

func TestVerifyFlag(t *testing.T) {
	// Undeclared callee: only the verifier objects.
	source := "define void @f() {\n  call void @__syncwarp()\n  ret void\n}\n"

	_, _, err := execute(t, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VerifyFailed")

	out, _, err := execute(t, source, "--verify=false")
	require.NoError(t, err)
	assert.Contains(t, out, "call void @llvm.nvvm.barrier0()")
}
