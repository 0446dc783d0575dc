package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/loxa/internal/maincmd"
)

func run(args []string, stdin string) (stdout, stderr string, code mainer.ExitCode) {
	var outBuf, errBuf bytes.Buffer
	c := &maincmd.Cmd{}
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &outBuf,
		Stderr: &errBuf,
	}
	code = c.Main(args, stdio)
	return outBuf.String(), errBuf.String(), code
}

func TestRunScriptSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.lox")
	require.NoError(t, os.WriteFile(path, []byte("print 1 + 2;"), 0600))

	stdout, stderr, code := run([]string{path}, "")
	assert.Equal(t, mainer.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "3\n", stdout)
}

func TestRunScriptCompileErrorExits65(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.lox")
	require.NoError(t, os.WriteFile(path, []byte("var ;"), 0600))

	_, stderr, code := run([]string{path}, "")
	assert.Equal(t, mainer.ExitCode(65), code)
	assert.NotEmpty(t, stderr)
}

func TestRunScriptRuntimeErrorExits70(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boom.lox")
	require.NoError(t, os.WriteFile(path, []byte("print undefinedName;"), 0600))

	_, stderr, code := run([]string{path}, "")
	assert.Equal(t, mainer.ExitCode(70), code)
	assert.NotEmpty(t, stderr)
}

func TestRunTooManyPathsIsUsageError(t *testing.T) {
	_, stderr, code := run([]string{"a.lox", "b.lox"}, "")
	assert.Equal(t, mainer.InvalidArgs, code)
	assert.Contains(t, stderr, "usage: loxa")
}

func TestReplEvaluatesEachLineAgainstSharedState(t *testing.T) {
	stdout, _, code := run(nil, "var x = 1;\nprint x + 1;\n")
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, stdout, "2\n")
}

// TestTokenizeSubCommandDoesNotConsumeItsOwnName is a regression test for a
// bug where Main passed the unsliced argument list to the dispatched
// sub-command, causing "tokenize" to be treated as a file name.
func TestTokenizeSubCommandDoesNotConsumeItsOwnName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "one.lox")
	require.NoError(t, os.WriteFile(path, []byte("print 1;"), 0600))

	stdout, stderr, code := run([]string{"tokenize", path}, "")
	assert.Equal(t, mainer.Success, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "print")
	assert.Contains(t, stdout, "end of file")
}

func TestTokenizeSubCommandRequiresAtLeastOneFile(t *testing.T) {
	_, stderr, code := run([]string{"tokenize"}, "")
	assert.NotEqual(t, mainer.Success, code)
	assert.Contains(t, stderr, "at least one file")
}

func TestCompileSubCommandDisassemblesScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.lox")
	require.NoError(t, os.WriteFile(path, []byte("fun f() { return 1; } print f();"), 0600))

	stdout, stderr, code := run([]string{"compile", path}, "")
	assert.Equal(t, mainer.Success, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "== <script> ==")
	assert.Contains(t, stdout, "== f ==")
}

func TestHelpFlagPrintsUsageAndExitsSuccess(t *testing.T) {
	stdout, _, code := run([]string{"--help"}, "")
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, stdout, "usage: loxa")
}

func TestVersionFlagPrintsVersionAndExitsSuccess(t *testing.T) {
	c := &maincmd.Cmd{BuildVersion: "v1.2.3", BuildDate: "2026-01-01"}
	var outBuf, errBuf bytes.Buffer
	stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &outBuf, Stderr: &errBuf}
	code := c.Main([]string{"--version"}, stdio)

	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, outBuf.String(), "v1.2.3")
}

func TestMissingFileIsRuntimeExit70(t *testing.T) {
	_, stderr, code := run([]string{filepath.Join(t.TempDir(), "missing.lox")}, "")
	assert.Equal(t, mainer.ExitCode(70), code)
	assert.NotEmpty(t, stderr)
}
