package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const fileSourceName = "file"

// FileSource reads documents from the local filesystem. PDF files go
// through text extraction, anything else is read as text.
type FileSource struct {
	baseDir string
	paths   map[DocumentKind]string
}

// NewFileSource creates a source for the given document paths. Relative
// paths are resolved against baseDir.
func NewFileSource(baseDir string, paths map[DocumentKind]string) *FileSource {
	return &FileSource{baseDir: baseDir, paths: paths}
}

// Name returns the name of the source
func (s *FileSource) Name() string {
	return fileSourceName
}

// Load reads and decodes the document of the given kind
func (s *FileSource) Load(ctx context.Context, kind DocumentKind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, ok := s.paths[kind]
	if !ok || path == "" {
		return "", NewDataSourceError(fileSourceName, ErrCodeNotFound, fmt.Sprintf("no %s document configured", kind), ErrNotFound)
	}
	if !filepath.IsAbs(path) && s.baseDir != "" {
		path = filepath.Join(s.baseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", NewDataSourceError(fileSourceName, ErrCodeNotFound, path, err)
		}
		return "", NewDataSourceError(fileSourceName, ErrCodeUnknown, "failed to read "+path, err)
	}

	text, err := DecodeDocument(path, data)
	if err != nil {
		return "", NewDataSourceError(fileSourceName, ErrCodeInvalidData, path, err)
	}
	return text, nil
}
