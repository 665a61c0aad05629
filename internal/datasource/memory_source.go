package datasource

import (
	"context"
	"fmt"
)

const memorySourceName = "upload"

// Document is a named document held in memory, such as a multipart upload
type Document struct {
	Name string
	Data []byte
}

// MemorySource serves documents already loaded into memory
type MemorySource struct {
	docs map[DocumentKind]Document
}

// NewMemorySource creates a source over in-memory documents
func NewMemorySource(docs map[DocumentKind]Document) *MemorySource {
	return &MemorySource{docs: docs}
}

// Name returns the name of the source
func (s *MemorySource) Name() string {
	return memorySourceName
}

// Load decodes the in-memory document of the given kind
func (s *MemorySource) Load(ctx context.Context, kind DocumentKind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, ok := s.docs[kind]
	if !ok || len(doc.Data) == 0 {
		return "", NewDataSourceError(memorySourceName, ErrCodeNotFound, fmt.Sprintf("no %s document uploaded", kind), ErrNotFound)
	}

	text, err := DecodeDocument(doc.Name, doc.Data)
	if err != nil {
		return "", NewDataSourceError(memorySourceName, ErrCodeInvalidData, doc.Name, err)
	}
	return text, nil
}
