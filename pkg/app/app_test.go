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

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemate-ai/filemate/pkg/dispatch"
	"github.com/filemate-ai/filemate/pkg/errdefs"
)

func TestNewCreatesWorkDir(t *testing.T) {
	home := t.TempDir()
	d, policy, err := New(Config{Home: home, WorkDir: filepath.Join(home, "FileMate")})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(policy.Home(), "FileMate"), d.BaseDir())
	assert.DirExists(t, d.BaseDir())
}

func TestNewDefaultsWorkDirToHome(t *testing.T) {
	d, policy, err := New(Config{Home: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, policy.Home(), d.BaseDir())
}

func TestNewRejectsWorkDirOutsideHome(t *testing.T) {
	home := t.TempDir()
	_, _, err := New(Config{Home: home, WorkDir: t.TempDir()})
	assert.Error(t, err)

	_, _, err = New(Config{Home: home, WorkDir: filepath.Join(home, ".ssh", "work")})
	assert.Error(t, err)
	assert.NoDirExists(t, filepath.Join(home, ".ssh"))
}

func TestNewWiresConverters(t *testing.T) {
	home := t.TempDir()
	d, _, err := New(Config{Home: home, SofficeBinary: "filemate-no-such-office"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(d.BaseDir(), "a.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(d.BaseDir(), "b.docx"), []byte("PK"), 0o644))

	r := d.Dispatch(context.Background(), dispatch.ParseLegacy("convert_pdf_to_word", "a.pdf"))
	assert.Equal(t, errdefs.Unavailable, r.Kind)
	assert.Contains(t, r.Message, "CLOUDCONVERT_API_KEY")

	r = d.Dispatch(context.Background(), dispatch.ParseLegacy("convert_word_to_pdf", "b.docx"))
	assert.Equal(t, errdefs.Unavailable, r.Kind)
	assert.NoFileExists(t, filepath.Join(d.BaseDir(), "b.pdf"))
}
