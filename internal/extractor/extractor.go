// Package extractor turns stored document bytes into plain text.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrExtractionFailed is returned for unreadable, corrupt or unsupported input.
// Extract never returns partial text together with an error.
var ErrExtractionFailed = errors.New("text extraction failed")

type Extractor interface {
	Extract(ctx context.Context, r io.Reader, filename string) (string, error)
}

var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
	".log": true,
}

// Auto picks the PDF or plain-text extractor from the file extension and the
// leading bytes of the content.
type Auto struct {
	pdf  *PDFExtractor
	text *TextExtractor
}

func New() *Auto {
	return &Auto{pdf: NewPDFExtractor(), text: NewTextExtractor()}
}

func (a *Auto) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", ErrExtractionFailed, err)
	}
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case ext == ".pdf" || bytes.HasPrefix(data, []byte("%PDF-")):
		return a.pdf.ExtractBytes(ctx, data)
	case textExtensions[ext]:
		return a.text.ExtractBytes(ctx, data)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", ErrExtractionFailed, ext)
	}
}
