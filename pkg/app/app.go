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

// Package app assembles the file manager from its configuration.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/filemate-ai/filemate/pkg/convert"
	"github.com/filemate-ai/filemate/pkg/dispatch"
	"github.com/filemate-ai/filemate/pkg/fileops"
	"github.com/filemate-ai/filemate/pkg/resolver"
	"github.com/filemate-ai/filemate/pkg/security"
)

// Config selects the allowed root, the working directory and the
// external converters.
type Config struct {
	Home               string
	WorkDir            string
	CloudConvertAPIKey string
	SofficeBinary      string
	ConvertTimeout     time.Duration
}

// New builds the policy and a dispatcher whose default base is the working
// directory, creating that directory when it is missing.
func New(cfg Config) (*dispatch.Dispatcher, *security.Policy, error) {
	policy, err := security.NewPolicy(cfg.Home)
	if err != nil {
		return nil, nil, err
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = policy.Home()
	}
	workDir, err = filepath.Abs(workDir)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid working directory: %w", err)
	}
	if !policy.IsPathAllowed(workDir) {
		return nil, nil, fmt.Errorf("working directory %s is outside of %s or restricted", workDir, policy.Home())
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	opts := []fileops.Option{
		fileops.WithWordConverter(convert.NewLibreOffice(cfg.SofficeBinary)),
	}
	if cfg.ConvertTimeout > 0 {
		opts = append(opts, fileops.WithConvertTimeout(cfg.ConvertTimeout))
	}
	if cfg.CloudConvertAPIKey != "" {
		opts = append(opts, fileops.WithPDFConverter(convert.NewCloudConvert(cfg.CloudConvertAPIKey)))
	}

	svc := fileops.New(resolver.New(policy), opts...)
	return dispatch.New(svc, workDir), policy, nil
}
