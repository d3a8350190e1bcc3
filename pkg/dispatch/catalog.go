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

package dispatch

import (
	"context"

	"github.com/filemate-ai/filemate/pkg/fileops"
)

// Operation describes one entry of the operation catalog. Arguments lists
// the positional argument names; the first Required of them are mandatory.
type Operation struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Arguments   []string `json:"arguments"`
	Required    int      `json:"required"`

	bind func(args []string) command
}

// command is the typed, validated form of a request.
type command interface {
	run(ctx context.Context, svc *fileops.Service, baseDir string) fileops.Result
}

var catalog = []Operation{
	{
		Name:        "create_folder",
		Description: "Crea una carpeta nueva. Formato: carpeta",
		Arguments:   []string{"folder"},
		Required:    1,
		bind:        func(a []string) command { return &createFolder{Folder: at(a, 0)} },
	},
	{
		Name:        "delete_file",
		Description: "Elimina un archivo. Formato: archivo",
		Arguments:   []string{"file"},
		Required:    1,
		bind:        func(a []string) command { return &deleteFile{File: at(a, 0)} },
	},
	{
		Name:        "delete_folder",
		Description: "Elimina una carpeta y todo su contenido. Formato: carpeta",
		Arguments:   []string{"folder"},
		Required:    1,
		bind:        func(a []string) command { return &deleteFolder{Folder: at(a, 0)} },
	},
	{
		Name:        "rename_file",
		Description: "Renombra un archivo. Formato: nombre_actual|nuevo_nombre",
		Arguments:   []string{"current", "new"},
		Required:    2,
		bind:        func(a []string) command { return &renameFile{Current: at(a, 0), New: at(a, 1)} },
	},
	{
		Name:        "rename_folder",
		Description: "Renombra una carpeta. Formato: nombre_actual|nuevo_nombre",
		Arguments:   []string{"current", "new"},
		Required:    2,
		bind:        func(a []string) command { return &renameFolder{Current: at(a, 0), New: at(a, 1)} },
	},
	{
		Name:        "move_file",
		Description: "Mueve un archivo a una carpeta. Formato: ruta_origen|carpeta_destino",
		Arguments:   []string{"source", "dest_folder"},
		Required:    2,
		bind:        func(a []string) command { return &moveFile{Source: at(a, 0), DestFolder: at(a, 1)} },
	},
	{
		Name:        "move_folder",
		Description: "Mueve una carpeta dentro de otra. Formato: ruta_origen|carpeta_destino",
		Arguments:   []string{"source", "dest_folder"},
		Required:    2,
		bind:        func(a []string) command { return &moveFolder{Source: at(a, 0), DestFolder: at(a, 1)} },
	},
	{
		Name:        "create_backup",
		Description: "Crea una copia de seguridad de un archivo o carpeta. Formato: elemento",
		Arguments:   []string{"item"},
		Required:    1,
		bind:        func(a []string) command { return &createBackup{Item: at(a, 0)} },
	},
	{
		Name:        "create_zip_archive",
		Description: "Comprime archivos y carpetas. Formato: elemento1,elemento2|nombre_zip",
		Arguments:   []string{"items", "zip_name"},
		Required:    2,
		bind:        func(a []string) command { return &createZip{Items: at(a, 0), ZipName: at(a, 1)} },
	},
	{
		Name:        "extract_zip_archive",
		Description: "Extrae un archivo zip en una carpeta. Formato: archivo_zip|carpeta_destino",
		Arguments:   []string{"zip", "dest_folder"},
		Required:    2,
		bind:        func(a []string) command { return &extractZip{Zip: at(a, 0), DestFolder: at(a, 1)} },
	},
	{
		Name:        "move_files_batch",
		Description: "Mueve los archivos que coinciden con un patrón. Formato: carpeta_origen|carpeta_destino|patron",
		Arguments:   []string{"source_folder", "dest_folder", "pattern"},
		Required:    2,
		bind: func(a []string) command {
			return &moveFilesBatch{SourceFolder: at(a, 0), DestFolder: at(a, 1), Pattern: at(a, 2)}
		},
	},
	{
		Name:        "rename_files_batch",
		Description: "Añade un prefijo o sufijo a los archivos que coinciden con un patrón. Formato: carpeta|patron|prefijo|sufijo",
		Arguments:   []string{"folder", "pattern", "prefix", "suffix"},
		Required:    2,
		bind: func(a []string) command {
			return &renameFilesBatch{Folder: at(a, 0), Pattern: at(a, 1), Prefix: at(a, 2), Suffix: at(a, 3)}
		},
	},
	{
		Name:        "convert_images_batch",
		Description: "Convierte todas las imágenes de una carpeta. Formato: carpeta|extension_origen|extension_destino",
		Arguments:   []string{"folder", "source_ext", "target_ext"},
		Required:    1,
		bind: func(a []string) command {
			return &convertImagesBatch{Folder: at(a, 0), SourceExt: at(a, 1), TargetExt: at(a, 2)}
		},
	},
	{
		Name:        "convert_image_format",
		Description: "Convierte una imagen a otro formato. Formato: imagen|formato|salida",
		Arguments:   []string{"image", "format", "output"},
		Required:    2,
		bind: func(a []string) command {
			return &convertImage{Image: at(a, 0), Format: at(a, 1), Output: at(a, 2)}
		},
	},
	{
		Name:        "convert_pdf_to_word",
		Description: "Convierte un PDF a Word conservando el formato. Formato: archivo_pdf|archivo_docx",
		Arguments:   []string{"pdf", "docx"},
		Required:    1,
		bind:        func(a []string) command { return &pdfToWord{PDF: at(a, 0), Docx: at(a, 1)} },
	},
	{
		Name:        "convert_word_to_pdf",
		Description: "Convierte un documento de Word (.docx) a PDF. Formato: archivo_docx",
		Arguments:   []string{"docx"},
		Required:    1,
		bind:        func(a []string) command { return &wordToPDF{Docx: at(a, 0)} },
	},
	{
		Name:        "list_files",
		Description: "Lista el contenido de una carpeta o las carpetas principales. Formato: carpeta (opcional)",
		Arguments:   []string{"directory"},
		bind:        func(a []string) command { return &listFiles{Directory: at(a, 0)} },
	},
	{
		Name:        "file_structure",
		Description: "Muestra la estructura de carpetas como texto. Formato: carpeta (opcional)",
		Arguments:   []string{"directory"},
		bind:        func(a []string) command { return &fileStructure{Directory: at(a, 0)} },
	},
	{
		Name:        "search_files",
		Description: "Busca archivos por nombre sin importar acentos ni mayúsculas. Formato: consulta|carpeta",
		Arguments:   []string{"query", "path"},
		Required:    1,
		bind:        func(a []string) command { return &searchFiles{Query: at(a, 0), Path: at(a, 1)} },
	},
	{
		Name:        "read_file_content",
		Description: "Lee el contenido de un archivo de texto o Word. Formato: archivo",
		Arguments:   []string{"file"},
		Required:    1,
		bind:        func(a []string) command { return &readFile{File: at(a, 0)} },
	},
	{
		Name:        "search_in_file",
		Description: "Busca palabras o frases dentro de un archivo. Formato: palabra|archivo",
		Arguments:   []string{"query", "file"},
		Required:    2,
		bind:        func(a []string) command { return &searchInFile{Query: at(a, 0), File: at(a, 1)} },
	},
}

// Catalog returns a copy of the operation catalog in a stable order.
func Catalog() []Operation {
	ops := make([]Operation, len(catalog))
	copy(ops, catalog)
	return ops
}

func at(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

type createFolder struct {
	Folder string `arg:"folder" validate:"required"`
}

func (c *createFolder) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.CreateFolder(base, c.Folder)
}

type deleteFile struct {
	File string `arg:"file" validate:"required"`
}

func (c *deleteFile) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.DeleteFile(base, c.File)
}

type deleteFolder struct {
	Folder string `arg:"folder" validate:"required"`
}

func (c *deleteFolder) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.DeleteFolder(base, c.Folder)
}

type renameFile struct {
	Current string `arg:"current" validate:"required"`
	New     string `arg:"new" validate:"required"`
}

func (c *renameFile) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.RenameFile(base, c.Current, c.New)
}

type renameFolder struct {
	Current string `arg:"current" validate:"required"`
	New     string `arg:"new" validate:"required"`
}

func (c *renameFolder) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.RenameFolder(base, c.Current, c.New)
}

type moveFile struct {
	Source     string `arg:"source" validate:"required"`
	DestFolder string `arg:"dest_folder" validate:"required"`
}

func (c *moveFile) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.MoveFile(base, c.Source, c.DestFolder)
}

type moveFolder struct {
	Source     string `arg:"source" validate:"required"`
	DestFolder string `arg:"dest_folder" validate:"required"`
}

func (c *moveFolder) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.MoveFolder(base, c.Source, c.DestFolder)
}

type createBackup struct {
	Item string `arg:"item" validate:"required"`
}

func (c *createBackup) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.CreateBackup(base, c.Item)
}

type createZip struct {
	Items   string `arg:"items" validate:"required"`
	ZipName string `arg:"zip_name" validate:"required"`
}

func (c *createZip) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.CreateZipArchive(base, c.Items, c.ZipName)
}

type extractZip struct {
	Zip        string `arg:"zip" validate:"required"`
	DestFolder string `arg:"dest_folder" validate:"required"`
}

func (c *extractZip) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.ExtractZipArchive(base, c.Zip, c.DestFolder)
}

type moveFilesBatch struct {
	SourceFolder string `arg:"source_folder" validate:"required"`
	DestFolder   string `arg:"dest_folder" validate:"required"`
	Pattern      string `arg:"pattern" validate:"omitempty,glob"`
}

func (c *moveFilesBatch) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.MoveFilesBatch(base, c.SourceFolder, c.DestFolder, c.Pattern)
}

type renameFilesBatch struct {
	Folder  string `arg:"folder" validate:"required"`
	Pattern string `arg:"pattern" validate:"required,glob"`
	Prefix  string `arg:"prefix" validate:"required_without=Suffix"`
	Suffix  string `arg:"suffix" validate:"required_without=Prefix"`
}

func (c *renameFilesBatch) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.RenameFilesBatch(base, c.Folder, c.Pattern, c.Prefix, c.Suffix)
}

type convertImagesBatch struct {
	Folder    string `arg:"folder" validate:"required"`
	SourceExt string `arg:"source_ext"`
	TargetExt string `arg:"target_ext"`
}

func (c *convertImagesBatch) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.ConvertImagesBatch(base, c.Folder, c.SourceExt, c.TargetExt)
}

type convertImage struct {
	Image  string `arg:"image" validate:"required"`
	Format string `arg:"format" validate:"required"`
	Output string `arg:"output"`
}

func (c *convertImage) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.ConvertImageFormat(base, c.Image, c.Format, c.Output)
}

type pdfToWord struct {
	PDF  string `arg:"pdf" validate:"required"`
	Docx string `arg:"docx"`
}

func (c *pdfToWord) run(ctx context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.ConvertPDFToWord(ctx, base, c.PDF, c.Docx)
}

type wordToPDF struct {
	Docx string `arg:"docx" validate:"required"`
}

func (c *wordToPDF) run(ctx context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.ConvertWordToPDF(ctx, base, c.Docx)
}

type listFiles struct {
	Directory string `arg:"directory"`
}

func (c *listFiles) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.ListFiles(base, c.Directory)
}

type fileStructure struct {
	Directory string `arg:"directory"`
}

func (c *fileStructure) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.FileStructure(base, c.Directory)
}

type searchFiles struct {
	Query string `arg:"query" validate:"required"`
	Path  string `arg:"path"`
}

func (c *searchFiles) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.SearchFiles(base, c.Query, c.Path)
}

type readFile struct {
	File string `arg:"file" validate:"required"`
}

func (c *readFile) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.ReadFileContent(base, c.File)
}

type searchInFile struct {
	Query string `arg:"query" validate:"required"`
	File  string `arg:"file" validate:"required"`
}

func (c *searchInFile) run(_ context.Context, svc *fileops.Service, base string) fileops.Result {
	return svc.SearchInFile(base, c.Query, c.File)
}
