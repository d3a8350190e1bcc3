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

// Package cli implements filematectl, the command-line front end of the
// file manager.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/filemate-ai/filemate/pkg/app"
	"github.com/filemate-ai/filemate/pkg/dispatch"
	"github.com/filemate-ai/filemate/pkg/fileops"
)

// Version is set at build time.
var Version = "dev"

// ErrOperationFailed is returned after a failed operation has already been
// reported on the error stream.
var ErrOperationFailed = errors.New("operation failed")

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	home               string
	workDir            string
	cloudConvertAPIKey string
	soffice            string
}

// App is the filematectl command tree.
type App struct {
	root   *cobra.Command
	opts   *globalOptions
	stdout io.Writer
	stderr io.Writer
}

// New creates the CLI with defaults taken from the environment.
func New() *App {
	a := &App{
		opts:   &globalOptions{},
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	a.root = &cobra.Command{
		Use:   "filematectl",
		Short: "Gestiona archivos y carpetas de tu carpeta personal",
		Long: `filematectl runs the file manager operations from the shell.

Every operation takes its arguments in order, exactly as the agent sends
them. Paths may start with a folder alias such as "documentos/" or
"descargas/"; bare names are looked up below the working directory.

Examples:
  filematectl ops
  filematectl run create_folder "proyectos/2024"
  filematectl run move_files_batch descargas imagenes "*.jpg"
  filematectl run rename_file --input "viejo.txt|nuevo.txt"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := a.root.PersistentFlags()
	flags.StringVar(&a.opts.home, "home", os.Getenv("FILEMATE_HOME"), "Allowed root directory (defaults to the user home)")
	flags.StringVar(&a.opts.workDir, "workdir", os.Getenv("WORKING_DIRECTORY"), "Working directory for relative paths (defaults to <home>/FileMate)")
	flags.StringVar(&a.opts.cloudConvertAPIKey, "cloudconvert-api-key", os.Getenv("CLOUDCONVERT_API_KEY"), "API key for PDF to Word conversion")
	flags.StringVar(&a.opts.soffice, "soffice", "soffice", "LibreOffice binary for Word to PDF conversion")

	a.root.AddCommand(
		a.newVersionCmd(),
		a.newOpsCmd(),
		a.newRunCmd(),
		a.newResolveCmd(),
	)
	return a
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI until completion or an interrupt.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.stdout, "filematectl version %s\n", Version)
		},
	}
}

// dispatcher assembles the file manager from the persistent flags.
func (a *App) dispatcher() (*dispatch.Dispatcher, error) {
	home := a.opts.home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
	}
	workDir := a.opts.workDir
	if workDir == "" {
		workDir = filepath.Join(home, "FileMate")
	}

	d, _, err := app.New(app.Config{
		Home:               home,
		WorkDir:            workDir,
		CloudConvertAPIKey: a.opts.cloudConvertAPIKey,
		SofficeBinary:      a.opts.soffice,
	})
	return d, err
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printResult renders r for a terminal: the message first, then whatever
// detail the operation returned.
func (a *App) printResult(r fileops.Result) {
	if r.Success {
		_, _ = fmt.Fprintf(a.stdout, "%s %s\n", color.GreenString("✓"), r.Message)
	} else {
		_, _ = fmt.Fprintf(a.stderr, "%s %s\n", color.RedString("✗"), r.Message)
	}

	if r.NewFilePath != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Archivo: %s\n", r.NewFilePath)
	}
	if r.BackupPath != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Copia:   %s\n", r.BackupPath)
	}
	for _, m := range r.Matches {
		_, _ = fmt.Fprintf(a.stdout, "  %s\n", m)
	}
	if r.Batch != nil {
		_, _ = fmt.Fprintf(a.stdout, "  %d de %d completados\n", r.Batch.Succeeded, r.Batch.Matched)
		for _, item := range r.Batch.Items {
			mark := color.GreenString("✓")
			if !item.Success {
				mark = color.RedString("✗")
			}
			_, _ = fmt.Fprintf(a.stdout, "  %s %s\n", mark, item.Message)
		}
	}
	a.printTree(r.Tree, "  ")
	if r.Content != "" {
		_, _ = fmt.Fprintln(a.stdout, r.Content)
	}
	for _, line := range r.Lines {
		_, _ = fmt.Fprintf(a.stdout, "  %s\n", line)
	}
}

func (a *App) printTree(nodes []fileops.TreeNode, indent string) {
	for _, n := range nodes {
		if len(n.Children) > 0 || n.Type != "archivo" {
			_, _ = fmt.Fprintf(a.stdout, "%s%s/\n", indent, color.CyanString(n.Name))
			a.printTree(n.Children, indent+"  ")
			continue
		}
		_, _ = fmt.Fprintf(a.stdout, "%s%s\n", indent, n.Name)
	}
}
