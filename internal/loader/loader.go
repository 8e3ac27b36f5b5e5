// Package loader turns an uploaded file into plain text for chunking.
package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"ragdocs/internal/model"
	"ragdocs/internal/pkg/docxextract"
	"ragdocs/internal/pkg/pdfextract"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Load validates the filename extension, extracts text and returns it with
// the normalized file type ("pdf" or "docx").
func Load(filename string, r io.Reader) (string, string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err := pdfextract.ExtractText(r)
		if err != nil {
			return "", "", fmt.Errorf("load pdf %s: %w", filename, err)
		}
		return text, model.FileTypePDF, nil
	case ".docx":
		text, err := docxextract.ExtractText(r)
		if err != nil {
			return "", "", fmt.Errorf("load docx %s: %w", filename, err)
		}
		return text, model.FileTypeDOCX, nil
	default:
		return "", "", ErrUnsupportedType
	}
}
