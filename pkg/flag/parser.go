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

package flag

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	stdlog "log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/filemate-ai/filemate/pkg/log"
)

const (
	envFileEnv                 = "FILEMATE_ENV_FILE"
	workingDirectoryEnv        = "WORKING_DIRECTORY"
	homeDirectoryEnv           = "FILEMATE_HOME"
	accessTokenEnv             = "FILEMATE_API_KEY"
	cloudConvertAPIKeyEnv      = "CLOUDCONVERT_API_KEY"
	convertTimeoutEnv          = "FILEMATE_CONVERT_TIMEOUT"
	watchEnv                   = "FILEMATE_WATCH"
	gracefulShutdownTimeoutEnv = "FILEMATE_API_GRACE_SHUTDOWN"

	defaultWorkspaceName = "FileMate"
)

// InitFlags loads .env, applies env overrides and parses the command line.
func InitFlags() {
	if err := parse(flag.CommandLine, os.Args[1:]); err != nil {
		stdlog.Panicf("Failed to parse configuration: %v", err)
	}

	log.Info("Home directory is: %s", HomeDirectory)
	log.Info("Working directory is: %s", WorkingDirectory)
	log.Info("PDF to Word conversion enabled: %t", CloudConvertAPIKey != "")
}

func parse(fset *flag.FlagSet, args []string) error {
	envFile := os.Getenv(envFileEnv)
	if envFile == "" {
		envFile = ".env"
	}
	// variables already present in the environment win over the file
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	// Set default values
	ServerPort = 44780
	ServerLogLevel = 6
	ConvertTimeout = 2 * time.Minute
	SofficeBinary = "soffice"
	WatchEnabled = true
	ApiGracefulShutdownTimeout = 3 * time.Second

	// First, set default values from environment variables
	WorkingDirectory = os.Getenv(workingDirectoryEnv)
	HomeDirectory = os.Getenv(homeDirectoryEnv)
	ServerAccessToken = os.Getenv(accessTokenEnv)
	CloudConvertAPIKey = os.Getenv(cloudConvertAPIKeyEnv)

	if v := os.Getenv(convertTimeoutEnv); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", convertTimeoutEnv, err)
		}
		ConvertTimeout = d
	}
	if v := os.Getenv(watchEnv); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", watchEnv, err)
		}
		WatchEnabled = b
	}
	if v := os.Getenv(gracefulShutdownTimeoutEnv); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", gracefulShutdownTimeoutEnv, err)
		}
		ApiGracefulShutdownTimeout = d
	}

	// Then define flags with current values as defaults
	fset.StringVar(&WorkingDirectory, "workdir", WorkingDirectory, "Base directory for relative paths (default: <home>/FileMate)")
	fset.StringVar(&HomeDirectory, "home", HomeDirectory, "Allowed root directory (default: the user's home)")
	fset.IntVar(&ServerPort, "port", ServerPort, "Server listening port (default: 44780)")
	fset.IntVar(&ServerLogLevel, "log-level", ServerLogLevel, "Server log level (0=LevelEmergency, 1=LevelAlert, 2=LevelCritical, 3=LevelError, 4=LevelWarning, 5=LevelNotice, 6=LevelInformational, 7=LevelDebug, default: 6)")
	fset.StringVar(&ServerAccessToken, "access-token", ServerAccessToken, "Server access token for API authentication")
	fset.StringVar(&CloudConvertAPIKey, "cloudconvert-api-key", CloudConvertAPIKey, "CloudConvert API key for PDF to Word conversion")
	fset.DurationVar(&ConvertTimeout, "convert-timeout", ConvertTimeout, "Timeout of a single external conversion (default: 2m)")
	fset.StringVar(&SofficeBinary, "soffice", SofficeBinary, "LibreOffice binary used for Word to PDF conversion")
	fset.BoolVar(&WatchEnabled, "watch", WatchEnabled, "Watch the working directory and stream changes on /events")
	fset.DurationVar(&ApiGracefulShutdownTimeout, "graceful-shutdown-timeout", ApiGracefulShutdownTimeout, "API graceful shutdown timeout duration (default: 3s)")

	// Parse flags - these will override environment variables if provided
	if err := fset.Parse(args); err != nil {
		return err
	}

	if HomeDirectory == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		HomeDirectory = home
	}
	if WorkingDirectory == "" {
		WorkingDirectory = filepath.Join(HomeDirectory, defaultWorkspaceName)
	}
	return nil
}
