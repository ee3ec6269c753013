// This file is part of pl0c.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.pl0c")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunSuccessfulProgramExitsZero(t *testing.T) {
	path := writeSource(t, "var x; begin x = 1 + 1 end.")
	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())
}

func TestRunCompileErrorReturnsErrorCount(t *testing.T) {
	path := writeSource(t, "begin x = 1 end.")
	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "undefined identifier")
}

func TestRunDisasmFlagPrintsProgramAndExitsZero(t *testing.T) {
	path := writeSource(t, "var x; begin x = 1 end.")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--disasm", path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "halt")
}

func TestRunDumpFlagPrintsRegistersToStderr(t *testing.T) {
	path := writeSource(t, "var x; begin x = 5 end.")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--dump", path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "pc=")
}

func TestRunMissingFileReportsError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"/nonexistent/file.pl0c"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "could not open source file")
}

func TestRunTooManyArgsIsUsageError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"a", "b"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "usage:")
}

func TestRunReadsStdinWhenNoArgs(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString("var x; begin x = 1 end.")
	require.NoError(t, err)
	w.Close()

	oldStdin := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()

	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)
	assert.Equal(t, 0, code)
}

func TestRunVerboseFlagTracesToStderr(t *testing.T) {
	path := writeSource(t, "var x; begin x = 1 end.")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-v", path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.NotEmpty(t, stderr.String())
}

func TestRuntimeErrorReturnsNonZeroExit(t *testing.T) {
	path := writeSource(t, "var x; begin x = 1 / 0 end.")
	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "division by zero")
}
