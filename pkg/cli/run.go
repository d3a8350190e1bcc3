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
	"errors"

	"github.com/spf13/cobra"

	"github.com/filemate-ai/filemate/pkg/dispatch"
)

var errInputWithArgs = errors.New("--input cannot be combined with positional arguments")

// runOptions holds options for the run command.
type runOptions struct {
	baseDir string
	input   string
	json    bool
}

func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <operation> [arguments...]",
		Short: "Run one file operation",
		Long: `Run one file operation with its ordered arguments.

The arguments may also be passed as a single "a|b" string with --input,
the form the agent produces. The command exits non-zero when the
operation fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runOperation(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.baseDir, "base", "", "Base directory for this operation (defaults to --workdir)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", `Arguments as a single "a|b" string`)
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the result as JSON")

	return cmd
}

func (a *App) runOperation(cmd *cobra.Command, opts *runOptions, args []string) error {
	d, err := a.dispatcher()
	if err != nil {
		return err
	}

	req := dispatch.Request{Operation: args[0], Arguments: args[1:]}
	if cmd.Flags().Changed("input") {
		if len(args) > 1 {
			return errInputWithArgs
		}
		req = dispatch.ParseLegacy(args[0], opts.input)
	}
	req.BaseDir = opts.baseDir

	result := d.Dispatch(cmd.Context(), req)
	if opts.json {
		if err := a.printJSON(result); err != nil {
			return err
		}
	} else {
		a.printResult(result)
	}
	if !result.Success {
		return ErrOperationFailed
	}
	return nil
}
