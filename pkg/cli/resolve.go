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

	"github.com/spf13/cobra"
)

type resolveOptions struct {
	baseDir string
}

func (a *App) newResolveCmd() *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show the absolute path a user path resolves to",
		Long: `Resolve a path the way every operation does: folder aliases first,
then absolute paths, then paths relative to the base directory. Paths
outside the allowed root or inside a restricted folder are rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dispatcher()
			if err != nil {
				return err
			}
			base := opts.baseDir
			if base == "" {
				base = d.BaseDir()
			}
			path, err := d.Service().Resolver().Resolve(args[0], base)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.stdout, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.baseDir, "base", "", "Base directory for relative paths (defaults to --workdir)")
	return cmd
}
