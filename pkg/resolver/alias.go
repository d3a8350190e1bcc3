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

package resolver

import (
	"path/filepath"
	"sort"
	"strings"
)

// Alias maps a localized folder word to a well-known directory.
type Alias struct {
	Token string
	Dir   string
}

// wellKnown lists the user folders and every token that names them.
var wellKnown = []struct {
	folder string
	tokens []string
}{
	{folder: "Desktop", tokens: []string{"escritorio", "desktop"}},
	{folder: "Documents", tokens: []string{"documentos", "documents"}},
	{folder: "Downloads", tokens: []string{"descargas", "downloads"}},
	{folder: "Pictures", tokens: []string{"imagenes", "imágenes", "pictures"}},
}

// DefaultAliases builds the alias table for the given home directory.
// Longer tokens come first so that no token shadows another one.
func DefaultAliases(home string) []Alias {
	var aliases []Alias
	for _, entry := range wellKnown {
		dir := filepath.Join(home, entry.folder)
		for _, token := range entry.tokens {
			aliases = append(aliases, Alias{Token: token, Dir: dir})
		}
	}
	sort.SliceStable(aliases, func(i, j int) bool {
		return len(aliases[i].Token) > len(aliases[j].Token)
	})
	return aliases
}

// RootFolders returns the display name and directory of each well-known folder.
func RootFolders(home string) []Alias {
	names := map[string]string{
		"Desktop":   "Escritorio",
		"Documents": "Documentos",
		"Downloads": "Descargas",
		"Pictures":  "Imágenes",
	}
	roots := make([]Alias, 0, len(wellKnown))
	for _, entry := range wellKnown {
		roots = append(roots, Alias{Token: names[entry.folder], Dir: filepath.Join(home, entry.folder)})
	}
	return roots
}

// matchAlias returns the directory for an input that starts with an alias
// token followed by a separator or the end of the input, and the remainder
// of the input in its original casing.
func matchAlias(aliases []Alias, input string) (string, string, bool) {
	trimmed := strings.TrimLeft(input, string(filepath.Separator))
	for _, alias := range aliases {
		n := len(alias.Token)
		if len(trimmed) < n || !strings.EqualFold(trimmed[:n], alias.Token) {
			continue
		}
		if len(trimmed) > n && trimmed[n] != filepath.Separator {
			continue
		}
		rest := strings.Trim(trimmed[n:], string(filepath.Separator))
		return alias.Dir, rest, true
	}
	return "", "", false
}
