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

package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// homeRelativeRestricted are denied subtrees expressed relative to the home directory.
var homeRelativeRestricted = []string{
	".ssh",
	".config",
	".password-store",
	".gnupg",
	".aws",
	".kube",
}

// systemRestricted are denied subtrees outside of any home directory.
var systemRestricted = []string{
	"/etc",
	"/bin",
	"/sbin",
	"/usr/bin",
	"/usr/sbin",
	"/System",
	"/Library",
	`C:\Windows\System32`,
}

var defaultDeniedExtensions = []string{
	".exe", ".bat", ".cmd", ".sh", ".py", ".js", ".vbs", ".ps1", ".msi", ".com", ".scr",
}

// Policy decides which paths and extensions the assistant may touch.
// It is built once at startup and only read afterwards.
type Policy struct {
	home       string
	restricted []string
	deniedExt  map[string]struct{}
}

// Option customizes a Policy.
type Option func(*Policy)

// WithRestrictedPaths appends denied subtrees.
func WithRestrictedPaths(paths ...string) Option {
	return func(p *Policy) {
		for _, path := range paths {
			if path == "" {
				continue
			}
			p.restricted = append(p.restricted, canonical(expandHome(path, p.home)))
		}
	}
}

// WithDeniedExtensions replaces the extension denylist.
func WithDeniedExtensions(exts ...string) Option {
	return func(p *Policy) {
		p.deniedExt = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			p.deniedExt[ext] = struct{}{}
		}
	}
}

// NewPolicy creates a policy whose allowed root is home.
func NewPolicy(home string, opts ...Option) (*Policy, error) {
	if strings.TrimSpace(home) == "" {
		return nil, errors.New("home directory is empty")
	}
	abs, err := filepath.Abs(home)
	if err != nil {
		return nil, fmt.Errorf("invalid home directory %s: %w", home, err)
	}

	p := &Policy{home: canonical(abs)}
	for _, rel := range homeRelativeRestricted {
		p.restricted = append(p.restricted, canonical(filepath.Join(p.home, rel)))
	}
	for _, sys := range systemRestricted {
		if filepath.IsAbs(sys) {
			p.restricted = append(p.restricted, filepath.Clean(sys))
		}
	}
	WithDeniedExtensions(defaultDeniedExtensions...)(p)

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// DefaultPolicy creates a policy rooted at the current user's home directory.
func DefaultPolicy(opts ...Option) (*Policy, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine home directory: %w", err)
	}
	return NewPolicy(home, opts...)
}

// Home returns the allowed root.
func (p *Policy) Home() string {
	return p.home
}

// IsPathAllowed reports whether path lies inside the home directory and
// outside every restricted subtree. Symbolic links are resolved first.
func (p *Policy) IsPathAllowed(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	abs, err := filepath.Abs(expandHome(path, p.home))
	if err != nil {
		return false
	}
	resolved := canonical(abs)

	if !Within(p.home, resolved) {
		return false
	}
	for _, restricted := range p.restricted {
		if Within(restricted, resolved) {
			return false
		}
	}
	return true
}

// ContainsRestricted reports whether a restricted subtree lies strictly
// below path, so relocating or removing path would carry it along.
func (p *Policy) ContainsRestricted(path string) bool {
	abs, err := filepath.Abs(expandHome(path, p.home))
	if err != nil {
		return true
	}
	resolved := canonical(abs)
	for _, restricted := range p.restricted {
		if restricted != resolved && Within(resolved, restricted) {
			return true
		}
	}
	return false
}

// IsExtensionAllowed reports whether name does not carry a denied extension.
func (p *Policy) IsExtensionAllowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return true
	}
	_, denied := p.deniedExt[ext]
	return !denied
}

// Within reports whether target equals root or descends from it. The check
// is separator aware, so /home/ann2 is not inside /home/ann.
func Within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(home, path[2:])
	}
	return path
}

// canonical resolves symbolic links on the deepest existing ancestor of path
// and re-appends the part that does not exist yet.
func canonical(path string) string {
	path = filepath.Clean(path)
	var missing []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			parts := append([]string{resolved}, missing...)
			return filepath.Join(parts...)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path
		}
		missing = append([]string{filepath.Base(current)}, missing...)
		current = parent
	}
}
