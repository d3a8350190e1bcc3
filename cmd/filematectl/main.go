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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/filemate-ai/filemate/pkg/cli"
	"github.com/filemate-ai/filemate/pkg/errdefs"
)

func main() {
	if err := cli.New().Execute(context.Background()); err != nil {
		var typed *errdefs.Error
		switch {
		case errors.Is(err, cli.ErrOperationFailed):
		case errors.As(err, &typed):
			fmt.Fprintf(os.Stderr, "Error: %s\n", typed.Message)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
