// Package snapshot_test provides golden snapshot tests for the default
// conversion pipeline.
//
// For each input module in testdata/in/, the test parses, converts and
// prints the module and compares the output to testdata/golden/<name>.ll.
// Each golden file is also fed back through the pipeline to check that
// conversion is idempotent.
//
// To regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/warpsync"
	"github.com/gogpu/warpsync/pass"
)

// ---------------------------------------------------------------------------
// Test Runner
// ---------------------------------------------------------------------------

// moduleFile represents an input module loaded from disk.
type moduleFile struct {
	name   string // base name without extension (e.g., "basic")
	source string
}

// TestSnapshots is the main golden snapshot test.
func TestSnapshots(t *testing.T) {
	modules := loadInputModules(t, "testdata/in")
	if len(modules) == 0 {
		t.Fatal("no input modules found in testdata/in/")
	}

	for i := range modules {
		mod := &modules[i]
		t.Run(mod.name, func(t *testing.T) {
			golden := filepath.Join("testdata", "golden", mod.name+".ll")
			out := convert(t, mod.source)
			compareGolden(t, golden, out)

			t.Run("idempotent", func(t *testing.T) {
				again := convert(t, out)
				if diff := cmp.Diff(out, again); diff != "" {
					t.Errorf("second conversion changed the module (-first +second):\n%s", diff)
				}
			})
		})
	}
}

// ---------------------------------------------------------------------------
// Module Loading
// ---------------------------------------------------------------------------

func loadInputModules(t *testing.T, dir string) []moduleFile {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input directory %q: %v", dir, err)
	}

	var modules []moduleFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ll") {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		if readErr != nil {
			t.Fatalf("read module %q: %v", entry.Name(), readErr)
		}
		name := strings.TrimSuffix(entry.Name(), ".ll")
		modules = append(modules, moduleFile{name: name, source: string(data)})
	}

	// Sort for deterministic test order
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].name < modules[j].name
	})

	return modules
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func convert(t *testing.T, source string) string {
	t.Helper()

	module, err := warpsync.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	report, err := warpsync.Lower(module, warpsync.DefaultOptions())
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	for _, res := range report.Passes {
		if res.State != pass.StateSucceeded {
			t.Fatalf("pass %s ended in state %s", res.Name, res.State)
		}
	}
	if verr := pass.Verify(module); verr != nil {
		t.Fatalf("converted module is invalid: %v", verr)
	}
	out, err := warpsync.Print(module)
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	return out
}

// ---------------------------------------------------------------------------
// Golden Comparison
// ---------------------------------------------------------------------------

func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file missing: %s\nRun with UPDATE_GOLDEN=1 to create.\n\nActual output:\n%s", path, truncate(actual, 500))
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Normalize line endings for cross-platform comparison.
	// Git may convert \n to \r\n on Windows checkout.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	actualStr := strings.ReplaceAll(actual, "\r\n", "\n")

	if diff := cmp.Diff(expectedStr, actualStr); diff != "" {
		t.Errorf("output differs from golden %s (-want +got):\n%s", path, diff)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "\n... (truncated)"
}
