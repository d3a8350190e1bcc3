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
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/filemate-ai/filemate/pkg/errdefs"
	"github.com/filemate-ai/filemate/pkg/resolver"
)

var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".csv": {}, ".json": {}, ".log": {},
	".yaml": {}, ".yml": {}, ".xml": {}, ".html": {},
}

// ListFiles returns the tree below directory. Without a directory it lists
// the well-known user folders that exist.
func (s *Service) ListFiles(baseDir, directory string) Result {
	if strings.TrimSpace(directory) == "" {
		var tree []TreeNode
		for _, root := range resolver.RootFolders(s.policy.Home()) {
			if info, err := os.Stat(root.Dir); err != nil || !info.IsDir() {
				continue
			}
			tree = append(tree, TreeNode{
				Name:     root.Token,
				Type:     nodeRootFolder,
				Path:     root.Dir,
				Children: s.listTree(root.Dir),
			})
		}
		r := succeed("Se encontraron %d carpetas principales", len(tree))
		r.Tree = tree
		return r
	}

	dir, err := s.resolve(directory, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(dir, directory, kindDir); err != nil {
		return fail(err)
	}
	r := succeed("Contenido de '%s'", directory)
	r.Tree = s.listTree(dir)
	return r
}

// listTree lists dir recursively, skipping entries the policy denies and
// subtrees that cannot be read. Symbolic links are not followed.
func (s *Service) listTree(dir string) []TreeNode {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	nodes := make([]TreeNode, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !s.policy.IsPathAllowed(path) {
			continue
		}
		switch {
		case e.IsDir():
			nodes = append(nodes, TreeNode{Name: e.Name(), Type: nodeFolder, Path: path, Children: s.listTree(path)})
		case e.Type().IsRegular():
			nodes = append(nodes, TreeNode{Name: e.Name(), Type: nodeFile, Path: path})
		}
	}
	return nodes
}

// FileStructure renders the tree below directory (or the base directory)
// as indented text, leaving out the backup folder.
func (s *Service) FileStructure(baseDir, directory string) Result {
	root := s.base(baseDir)
	display := root
	if strings.TrimSpace(directory) != "" {
		var err error
		if root, err = s.resolve(directory, baseDir); err != nil {
			return fail(err)
		}
		display = directory
	}
	if _, err := statExisting(root, display, kindDir); err != nil {
		return fail(err)
	}

	var lines []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if path == root {
			return err
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.policy.IsPathAllowed(path) || (d.IsDir() && d.Name() == s.backupDir) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		indent := strings.Repeat("    ", strings.Count(rel, string(filepath.Separator)))
		if d.IsDir() {
			lines = append(lines, fmt.Sprintf("%s📁 %s/", indent, d.Name()))
		} else {
			lines = append(lines, fmt.Sprintf("%s📄 %s", indent, d.Name()))
		}
		return nil
	})
	if err != nil {
		return fail(errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo leer la carpeta '%s'", display))
	}

	r := succeed("Estructura de '%s'", display)
	if len(lines) == 0 {
		r.Message = fmt.Sprintf("La carpeta '%s' está vacía", display)
	}
	r.Content = strings.Join(lines, "\n")
	return r
}

// SearchFiles finds files whose name, ignoring the extension, matches query
// regardless of case, accents and punctuation. Exact matches come first.
func (s *Service) SearchFiles(baseDir, query, path string) Result {
	normalized := normalizeName(query)
	if normalized == "" {
		return fail(errdefs.New(errdefs.InvalidInput, "Debes indicar qué archivo buscar"))
	}
	root := s.policy.Home()
	if strings.TrimSpace(path) != "" {
		var err error
		if root, err = s.resolve(path, baseDir); err != nil {
			return fail(err)
		}
		if _, err := statExisting(root, path, kindDir); err != nil {
			return fail(err)
		}
	}

	var exact, partial []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.policy.IsPathAllowed(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := normalizeName(strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())))
		switch {
		case name == normalized:
			exact = append(exact, p)
		case strings.Contains(name, normalized):
			partial = append(partial, p)
		}
		if len(exact)+len(partial) >= maxSearchResults {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return fail(errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo buscar en '%s'", root))
	}

	results := append(exact, partial...)
	if len(results) == 0 {
		return fail(errdefs.New(errdefs.NotFound, "No se encontraron archivos que coincidan con '%s'", query))
	}
	r := succeed("Se encontraron %d archivos que coinciden con '%s'", len(results), query)
	r.Matches = results
	return r
}

// normalizeName strips accents and punctuation, lower-cases and collapses
// whitespace: "Informe  Anual-Año" becomes "informe anualano".
func normalizeName(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}

	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// ReadFileContent returns the text of a plain text or .docx file.
func (s *Service) ReadFileContent(baseDir, file string) Result {
	content, truncated, err := s.readText(baseDir, file)
	if err != nil {
		return fail(err)
	}
	r := succeed("Contenido de '%s'", file)
	if truncated {
		r.Message = fmt.Sprintf("Contenido de '%s' (recortado a %d bytes)", file, s.maxReadBytes)
	}
	r.Content = content
	return r
}

// SearchInFile returns the lines of file that contain query, ignoring case.
func (s *Service) SearchInFile(baseDir, query, file string) Result {
	if strings.TrimSpace(query) == "" {
		return fail(errdefs.New(errdefs.InvalidInput, "Debes indicar qué texto buscar"))
	}
	content, _, err := s.readText(baseDir, file)
	if err != nil {
		return fail(err)
	}

	needle := strings.ToLower(query)
	var lines []string
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			lines = append(lines, fmt.Sprintf("Línea %d: %s", i+1, strings.TrimSpace(line)))
		}
	}
	if len(lines) == 0 {
		return fail(errdefs.New(errdefs.NotFound, "No se encontró '%s' en '%s'", query, file))
	}
	r := succeed("Se encontraron %d líneas con '%s' en '%s'", len(lines), query, file)
	r.Lines = lines
	return r
}

func (s *Service) readText(baseDir, file string) (string, bool, error) {
	path, err := s.resolve(file, baseDir)
	if err != nil {
		return "", false, err
	}
	if _, err := statExisting(path, file, kindFile); err != nil {
		return "", false, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var data []byte
	switch {
	case ext == ".docx":
		data, err = docxText(path)
	case isTextExt(ext):
		data, err = readLimited(path, s.maxReadBytes+1)
	default:
		return "", false, errdefs.New(errdefs.InvalidInput, "El formato de archivo '%s' no es compatible para lectura", file)
	}
	if err != nil {
		var typed *errdefs.Error
		if errors.As(err, &typed) {
			return "", false, typed
		}
		return "", false, errdefs.Wrap(errdefs.ExternalFailure, err, "Ocurrió un error al leer '%s'", file)
	}

	truncated := int64(len(data)) > s.maxReadBytes
	if truncated {
		data = data[:s.maxReadBytes]
	}
	content := strings.ToValidUTF8(string(data), "")
	return strings.ReplaceAll(content, "\r\n", "\n"), truncated, nil
}

func isTextExt(ext string) bool {
	_, ok := textExtensions[ext]
	return ok
}

func readLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}

// docxText extracts the paragraphs of word/document.xml, one per line.
func docxText(path string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.InvalidInput, err, "'%s' no es un documento de Word válido", filepath.Base(path))
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, errdefs.New(errdefs.InvalidInput, "'%s' no es un documento de Word válido", filepath.Base(path))
	}
	rc, err := doc.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	var paragraphs []string
	inText := false
	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errdefs.Wrap(errdefs.InvalidInput, err, "'%s' no es un documento de Word válido", filepath.Base(path))
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	if buf.Len() > 0 {
		paragraphs = append(paragraphs, buf.String())
	}
	return []byte(strings.Join(paragraphs, "\n")), nil
}

// TextExtensions lists the extensions ReadFileContent accepts besides .docx.
func TextExtensions() []string {
	exts := make([]string, 0, len(textExtensions))
	for ext := range textExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
