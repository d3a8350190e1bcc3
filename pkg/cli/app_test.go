// Copyright 2025 Alibaba Group Holding Ltd.
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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemate-ai/filemate/pkg/errdefs"
	"github.com/filemate-ai/filemate/pkg/fileops"
)

type testEnv struct {
	home string
	work string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	color.NoColor = true
	home, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return testEnv{home: home, work: filepath.Join(home, "FileMate")}
}

func (e testEnv) exec(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := New().WithOutput(&stdout, &stderr)
	full := append([]string{"--home", e.home, "--workdir", e.work}, args...)
	err := a.ExecuteWithArgs(context.Background(), full)
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.exec(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "filematectl version")
}

func TestOpsListsCatalog(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.exec(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "create_folder")
	assert.Contains(t, out, "source_folder|dest_folder|[pattern]")
	assert.Contains(t, out, "[directory]")
}

func TestOpsJSON(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.exec(t, "ops", "--json")
	require.NoError(t, err)

	var entries []opEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "extract_zip_archive")
}

func TestRunCreatesFolder(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.exec(t, "run", "create_folder", "proyectos/2024")
	require.NoError(t, err)
	assert.Contains(t, out, "✓")

	info, err := os.Stat(filepath.Join(env.work, "proyectos", "2024"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRunFailureReportsOnStderr(t *testing.T) {
	env := newTestEnv(t)
	out, errOut, err := env.exec(t, "run", "delete_file", "no-existe.txt")
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "✗")
}

func TestRunLegacyInput(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.work, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.work, "viejo.txt"), []byte("x"), 0o644))

	_, _, err := env.exec(t, "run", "rename_file", "--input", "viejo.txt | nuevo.txt")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(env.work, "nuevo.txt"))
	assert.NoFileExists(t, filepath.Join(env.work, "viejo.txt"))
}

func TestRunInputRejectsPositionalArguments(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.exec(t, "run", "rename_file", "a.txt", "--input", "a.txt|b.txt")
	assert.ErrorIs(t, err, errInputWithArgs)
}

func TestRunJSON(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.exec(t, "run", "--json", "create_folder", "../../fuera")
	assert.ErrorIs(t, err, ErrOperationFailed)

	var result fileops.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Success)
	assert.Equal(t, errdefs.NotPermitted, result.Kind)
	assert.NoDirExists(t, filepath.Join(filepath.Dir(env.home), "fuera"))
}

func TestRunUnknownOperation(t *testing.T) {
	env := newTestEnv(t)
	_, errOut, err := env.exec(t, "run", "format_disk")
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.Contains(t, errOut, "Operación desconocida")
}

func TestResolve(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.exec(t, "resolve", "documentos/informe.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.home, "Documents", "informe.pdf")+"\n", out)

	out, _, err = env.exec(t, "resolve", "notas.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.work, "notas.txt")+"\n", out)

	_, _, err = env.exec(t, "resolve", "~/.ssh/id_rsa")
	assert.True(t, errdefs.IsKind(err, errdefs.NotPermitted))
}
