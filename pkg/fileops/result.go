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

package fileops

import (
	"fmt"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

// Result is the uniform outcome of every operation. Success is
// authoritative; Message is end-user prose and must not be parsed.
type Result struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	Kind        errdefs.Kind  `json:"error_kind,omitempty"`
	NewFilePath string        `json:"new_file_path,omitempty"`
	BackupPath  string        `json:"backup_path,omitempty"`
	Matches     []string      `json:"matches,omitempty"`
	Batch       *BatchSummary `json:"batch,omitempty"`
	Tree        []TreeNode    `json:"tree,omitempty"`
	Content     string        `json:"content,omitempty"`
	Lines       []string      `json:"lines,omitempty"`
}

// BatchSummary accounts for every entry a batch operation matched.
type BatchSummary struct {
	Matched   int         `json:"matched"`
	Succeeded int         `json:"succeeded"`
	Items     []BatchItem `json:"items"`
}

// BatchItem is the outcome of one entry of a batch.
type BatchItem struct {
	Source  string       `json:"source"`
	Target  string       `json:"target,omitempty"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Kind    errdefs.Kind `json:"error_kind,omitempty"`
}

// TreeNode is one entry of a directory listing.
type TreeNode struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Path     string     `json:"path"`
	Children []TreeNode `json:"children,omitempty"`
}

const (
	nodeFile       = "archivo"
	nodeFolder     = "carpeta"
	nodeRootFolder = "carpeta_sistema"
)

// Err returns the failure carried by r as an errdefs error, or nil.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return errdefs.New(r.Kind, "%s", r.Message)
}

func succeed(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// Failure builds the Result reported for err. Callers outside this package
// use it for failures detected before an operation runs.
func Failure(err error) Result {
	return fail(err)
}

func fail(err error) Result {
	return Result{
		Success: false,
		Message: errdefs.MessageOf(err),
		Kind:    errdefs.KindOf(err),
	}
}

func failWithMatches(err error, matches []string) Result {
	r := fail(err)
	r.Matches = matches
	return r
}

func (b *BatchSummary) add(item BatchItem) {
	b.Items = append(b.Items, item)
	if item.Success {
		b.Succeeded++
	}
}

func (b *BatchSummary) complete() bool {
	return b.Matched > 0 && b.Succeeded == b.Matched
}
