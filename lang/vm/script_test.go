package vm_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/loxa/internal/filetest"
	"github.com/mna/loxa/lang/vm"
)

var updateScriptTests = flag.Bool("test.update-script-tests", false, "update lang/vm/testdata/*.want golden files")

// TestScripts runs every testdata/*.lox file end-to-end and diffs its
// stdout against the matching *.want golden file, in the style of
// internal/filetest's golden-file comparison helpers.
func TestScripts(t *testing.T) {
	for _, fi := range filetest.SourceFiles(t, "testdata", ".lox") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join("testdata", fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			var out bytes.Buffer
			machine := vm.New(vm.DefaultConfig(), &out)
			if err := machine.Interpret(src); err != nil {
				t.Fatalf("unexpected error running %s: %v", fi.Name(), err)
			}

			filetest.DiffOutput(t, fi, out.String(), "testdata", updateScriptTests)
		})
	}
}
