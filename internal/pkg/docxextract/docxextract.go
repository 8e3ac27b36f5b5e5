// Package docxextract pulls plain text out of .docx files. A docx is a zip
// archive; the body text lives in word/document.xml, with paragraphs as w:p
// elements and text runs as w:t elements.
package docxextract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const documentEntry = "word/document.xml"

// ExtractText reads all of r and returns the document's text, one line per
// paragraph.
func ExtractText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read docx failed: %w", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open docx archive failed: %w", err)
	}

	var docFile *zip.File
	for _, f := range archive.File {
		if f.Name == documentEntry {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("docx has no %s entry", documentEntry)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open %s failed: %w", documentEntry, err)
	}
	defer rc.Close()

	return parseDocumentXML(rc)
}

func parseDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var out strings.Builder
	var paragraph strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document xml failed: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					return "", fmt.Errorf("decode text run failed: %w", err)
				}
				paragraph.WriteString(text)
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				if paragraph.Len() > 0 {
					out.WriteString(paragraph.String())
					paragraph.Reset()
				}
				out.WriteString("\n")
			}
		}
	}
	if paragraph.Len() > 0 {
		out.WriteString(paragraph.String())
	}
	return out.String(), nil
}
