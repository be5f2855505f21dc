// Package extract provides text extraction from CV document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the extensions with a dedicated extractor.
var SupportedExtensions = []string{".pdf", ".docx", ".xlsx", ".txt", ".md"}

// Extractor extracts plain text from CV files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content with line structure kept.
// For plain text files (.txt, .md), content is returned as-is (UTF-8 validated).
// For PDF, DOCX and Excel, text is extracted from the binary format.
// Returns an error if the file cannot be read or parsed.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		// Unknown extension: treat as plain text
		return extractPlain(content)
	}
}

// Supported reports whether path has one of exts (case-insensitive). A nil exts means SupportedExtensions.
func Supported(path string, exts []string) bool {
	if exts == nil {
		exts = SupportedExtensions
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
