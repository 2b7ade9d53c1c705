package model

import (
	"os"
	"path/filepath"
	"strings"
)

// Document is a source text handed to the ingestion pipeline. Its ID ends up
// in the source docs of every node and edge extracted from it.
type Document struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Source   string   `json:"source,omitempty"`
	Content  string   `json:"-"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// NewDocumentFromFile reads a file into a Document.
// The title and id default to the filename without its last extension.
func NewDocumentFromFile(filePath string, metadata Metadata) (*Document, error) {
	content, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if title == "" {
		title = filename
	}

	return &Document{
		ID:       title,
		Title:    title,
		Source:   filePath,
		Content:  string(content),
		Metadata: metadata,
	}, nil
}
