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
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/filemate-ai/filemate/pkg/dispatch"
)

type opsOptions struct {
	json bool
}

func (a *App) newOpsCmd() *cobra.Command {
	opts := &opsOptions{}

	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List the available operations and their arguments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listOps(opts)
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the catalog as JSON")
	return cmd
}

type opEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Arguments   []string `json:"arguments"`
	Required    int      `json:"required"`
	Usage       string   `json:"usage"`
}

func (a *App) listOps(opts *opsOptions) error {
	catalog := dispatch.Catalog()
	if opts.json {
		entries := make([]opEntry, 0, len(catalog))
		for _, op := range catalog {
			entries = append(entries, opEntry{
				Name:        op.Name,
				Description: op.Description,
				Arguments:   op.Arguments,
				Required:    op.Required,
				Usage:       op.Usage(),
			})
		}
		return a.printJSON(entries)
	}

	width := 0
	for _, op := range catalog {
		width = max(width, len(op.Name))
	}
	_, _ = fmt.Fprintf(a.stdout, "Operaciones (%d):\n\n", len(catalog))
	for _, op := range catalog {
		pad := strings.Repeat(" ", width-len(op.Name))
		_, _ = fmt.Fprintf(a.stdout, "  %s%s  %s\n", color.CyanString(op.Name), pad, op.Description)
		if usage := op.Usage(); usage != "" {
			_, _ = fmt.Fprintf(a.stdout, "  %s  %s\n", strings.Repeat(" ", width), color.YellowString(usage))
		}
	}
	return nil
}
